package config

import (
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// OracleAPI is the base URL of the pool reserve oracle.
	OracleAPI string
	// OracleAPIKey is the optional Authorization value sent to the oracle.
	OracleAPIKey string
	// WebListenAddr is the listen address of the built-in JSON API server.
	WebListenAddr string
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultOracleAPI     = "https://api.taostats.io"
	DefaultWebListenAddr = ":8080"
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	OracleAPI = getEnvWithDefault("ORACLE_API", DefaultOracleAPI)
	OracleAPIKey = getEnvWithDefault("ORACLE_API_KEY", "")
	WebListenAddr = getEnvWithDefault("WEB_LISTEN_ADDR", DefaultWebListenAddr)

	log.Debug().
		Str("OracleAPI", OracleAPI).
		Bool("OracleAPIKeySet", OracleAPIKey != "").
		Str("WebListenAddr", WebListenAddr).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
