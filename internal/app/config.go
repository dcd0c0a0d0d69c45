package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/WAzaizeh/ChainFlow/internal/config"
)

// MustReadEnv loads the configuration from the environment (a .env
// file is picked up automatically when present) and installs it as the
// process-wide config.
func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to load configuration")
		panic(err)
	}
	config.SetGlobal(cfg)

	globalLogger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTP.Port).
		Msg("configuration loaded")
}
