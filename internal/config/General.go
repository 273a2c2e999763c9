package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// Network is the Bittensor network the oracle queries (e.g. "finney").
	Network string

	// SubnetID is the netuid of the subnet pool this instance analyzes.
	SubnetID uint64
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultNetwork  = "finney"
	DefaultSubnetID = 67
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. Network and subnet fall back to defaults so the CLI
// works out of the box; endpoint overrides are optional too.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Network = getEnvWithDefault("NETWORK", DefaultNetwork)

	SubnetID, err = getEnvAsUint64WithDefault("NETUID", DefaultSubnetID)
	if err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("Network", Network).
		Uint64("SubnetID", SubnetID).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnvWithDefault retrieves a string environment variable, falling back to
// def when the variable is unset or empty.
func getEnvWithDefault(key, def string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return def
}

// getEnvAsUint64WithDefault retrieves an environment variable as a uint64,
// falling back to def when unset. Returns error if set but invalid.
func getEnvAsUint64WithDefault(key string, def uint64) (uint64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return def, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}
