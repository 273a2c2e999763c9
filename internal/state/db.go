// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS model_parameters (
			params_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			config_name VARCHAR(255) NOT NULL DEFAULT 'default',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			daily_blocks DECIMAL(20, 8) NOT NULL,
			miner_emission_share DECIMAL(10, 8) NOT NULL,
			epochs_per_day DECIMAL(10, 4) NOT NULL,
			base_trading_fee DECIMAL(12, 10) NOT NULL,
			base_borrowing_fee DECIMAL(12, 10) NOT NULL,
			kink DECIMAL(10, 8) NOT NULL,
			slope1 DECIMAL(12, 10) NOT NULL,
			slope2 DECIMAL(12, 10) NOT NULL,
			lp_fee_share DECIMAL(10, 8) NOT NULL,
			trading_fee_share DECIMAL(10, 8) NOT NULL,
			borrowing_fee_share DECIMAL(10, 8) NOT NULL,
			buyback_start_tao DECIMAL(20, 8) NOT NULL,
			buyback_increment_per_day DECIMAL(20, 8) NOT NULL,
			emission_halving_day INTEGER NOT NULL,
			post_halving_emission_factor DECIMAL(10, 8) NOT NULL,
			counter_sell_fraction DECIMAL(10, 8) NOT NULL,
			miner_sell_start DECIMAL(10, 8) NOT NULL,
			miner_sell_decay_per_day DECIMAL(10, 8) NOT NULL,
			miner_sell_floor DECIMAL(10, 8) NOT NULL,
			CONSTRAINT uq_model_parameters_config_version UNIQUE (config_name, version)
		);
		CREATE INDEX IF NOT EXISTS idx_model_parameters_config_active_timestamp ON model_parameters(config_name, is_active, activated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_model_parameters_config_timestamp ON model_parameters(config_name, activated_at DESC);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
