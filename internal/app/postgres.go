package app

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WAzaizeh/ChainFlow/internal/config"
)

var globalPostgresPool *pgxpool.Pool

// MustConnectPostgres opens the shared pgx pool and verifies the
// database is reachable before the HTTP server takes traffic.
func MustConnectPostgres() {
	cfg := config.Global().Postgres

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Username, cfg.Password,
		net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("invalid postgres configuration")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to open postgres pool")
		panic(err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = pool.Ping(pingCtx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("host", cfg.Host).
			Str("database", cfg.Database).
			Msg("postgres is unreachable")
		panic(err)
	}

	globalPostgresPool = pool
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("postgres pool ready")
}

func DisconnectPostgres() {
	globalPostgresPool.Close()
	globalLogger.Info().Msg("postgres pool closed")
}
