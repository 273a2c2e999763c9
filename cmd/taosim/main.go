package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/subtensor-labs/taosim/internal/config"
	"github.com/subtensor-labs/taosim/internal/datafetcher"
	"github.com/subtensor-labs/taosim/internal/engine"
	"github.com/subtensor-labs/taosim/internal/logger"
	"github.com/subtensor-labs/taosim/internal/state"
	"github.com/subtensor-labs/taosim/internal/types"
)

// Global flags
var (
	flagNetwork  string
	flagNetuid   uint64
	flagLogLevel string
)

// rootCmd is the base command for the taosim CLI
var rootCmd = &cobra.Command{
	Use:   "taosim",
	Short: "Subnet pool economics simulator",
	Long: `taosim models the economics of a TAO/alpha liquidity pool on a dynamic-TAO
Bittensor subnet: projected APR/APY across a TVL range, and the price and
reserve trajectory when a whale executes a staged buy against the pool.

Live pool reserves come from the configured oracle and are cached for the
lifetime of the process; results are deterministic for identical inputs.`,
}

func init() {
	rootCmd.PersistentPreRunE = bootstrap
	rootCmd.PersistentFlags().StringVar(&flagNetwork, "network", config.DefaultNetwork, "Bittensor network the oracle queries")
	rootCmd.PersistentFlags().Uint64Var(&flagNetuid, "netuid", config.DefaultSubnetID, "Subnet netuid of the pool")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (trace|debug|info|warn|error), defaults to LOG_LEVEL")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads the environment, configuration and logger before any
// subcommand runs. Command-line flags override environment configuration.
func bootstrap(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := flagLogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	logger.Initialize(level)

	if rootCmd.PersistentFlags().Changed("network") {
		config.Network = flagNetwork
	}
	if rootCmd.PersistentFlags().Changed("netuid") {
		config.SubnetID = flagNetuid
	}

	return nil
}

// buildEngine wires the oracle client and model parameters into an engine
func buildEngine(modelParams types.ModelParameters) (*engine.Engine, error) {
	client := datafetcher.NewReserveClient(config.OracleAPI, config.OracleAPIKey)

	return engine.NewEngine(engine.Config{
		ReserveSource: client,
		Params:        modelParams,
		Network:       config.Network,
		NetUID:        config.SubnetID,
		ConfigName:    engine.DEFAULT_PARAMS_CONFIG_NAME,
		ConfigVersion: engine.DEFAULT_PARAMS_CONFIG_VERSION,
	})
}

// initStateFromEnv connects the parameter store when DB_* variables are
// present. The store is optional; returns false when none is configured.
func initStateFromEnv() (bool, error) {
	if os.Getenv("DB_HOST") == "" {
		return false, nil
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: sslMode,
	}
	if err := state.InitDB(dbCfg); err != nil {
		return true, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := state.EnsureSchema(); err != nil {
		return true, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	return true, nil
}

// loadModelParameters returns the active stored preset when a parameter
// store is configured and reachable, the built-in defaults otherwise.
func loadModelParameters() types.ModelParameters {
	configured, err := initStateFromEnv()
	if err != nil {
		log.Warn().Err(err).Msg("Parameter store unavailable, using default model parameters")
		return config.DefaultModelParameters
	}
	if !configured {
		return config.DefaultModelParameters
	}

	stored, err := state.LoadActiveModelParameters(engine.DEFAULT_PARAMS_CONFIG_NAME)
	if err != nil {
		log.Warn().Err(err).Msg("No active parameter preset, using default model parameters")
		return config.DefaultModelParameters
	}

	log.Info().Str("configName", engine.DEFAULT_PARAMS_CONFIG_NAME).Msg("Loaded active parameter preset")
	return *stored
}

// outputJSON prints a value as indented JSON on stdout
func outputJSON(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
