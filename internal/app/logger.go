package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/WAzaizeh/ChainFlow/internal/config"
)

var globalLogger zerolog.Logger

// InitDefaultLogger brings up a minimal stdout logger first, so that
// config and connection failures during bootstrap still come out in a
// structured form.
func InitDefaultLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"

	globalLogger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Str("service", "chainflow").
		Logger()

	globalLogger.Info().Msg("bootstrap logger up")
}

// MustInitApplicationLogger retunes the bootstrap logger for the
// configured environment: human-readable console output with trace
// level locally, plain JSON at debug/info level everywhere else.
func MustInitApplicationLogger() {
	cfg := config.Global()

	var w io.Writer = os.Stdout
	switch cfg.Env {
	case config.EnvLocal:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)

		console := zerolog.NewConsoleWriter()
		console.Out = os.Stdout
		console.TimeFormat = time.DateTime
		w = console
	case config.EnvDev:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case config.EnvProd:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		globalLogger.Error().
			Str("env", cfg.Env).
			Msg("unsupported environment")
		panic(fmt.Errorf("unsupported environment: %s", cfg.Env))
	}

	globalLogger = globalLogger.Output(w)
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("level", zerolog.GlobalLevel().String()).
		Msg("application logger up")
}
