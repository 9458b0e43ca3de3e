package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/ramadan/internal/config"
	"github.com/Nixie-Tech-LLC/ramadan/internal/logging"
)

// LoadEnvironment reads and validates env vars and configures logging.
func LoadEnvironment() (*config.Server, zerolog.Logger) {
	env, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.Setup(env.LogLevel, env.LogPretty)
	logger.Info().
		Str("env", env.Environment).
		Str("store", env.StoreBackend).
		Bool("push", env.PushConfigured()).
		Msg("configuration loaded")
	return env, logger
}
