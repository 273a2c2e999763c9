// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subtensor-labs/taosim/internal/types"
)

// ErrNoParameters is returned when a lookup finds no stored preset; callers
// fall back to the built-in defaults on it.
var ErrNoParameters = errors.New("no model parameters found")

// SaveModelParameters saves a new version of the economic model parameters.
// When makeActive is set, any currently active preset under the same config
// name is deactivated inside the same transaction.
func SaveModelParameters(params types.ModelParameters, configName string, version int, makeActive bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	if err := params.Validate(); err != nil {
		return 0, fmt.Errorf("refusing to store invalid parameters: %w", err)
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE model_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`
		_, err = tx.Exec(stmtDeactivate, configName)
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
        INSERT INTO model_parameters (
            version, config_name, is_active, activated_at, created_at,
            daily_blocks, miner_emission_share, epochs_per_day,
            base_trading_fee, base_borrowing_fee, kink, slope1, slope2,
            lp_fee_share, trading_fee_share, borrowing_fee_share,
            buyback_start_tao, buyback_increment_per_day,
            emission_halving_day, post_halving_emission_factor, counter_sell_fraction,
            miner_sell_start, miner_sell_decay_per_day, miner_sell_floor
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8,
            $9, $10, $11, $12, $13,
            $14, $15, $16,
            $17, $18,
            $19, $20, $21,
            $22, $23, $24
        ) RETURNING params_id;`

	var paramsID int64
	currentTime := time.Now()
	err = tx.QueryRow(
		stmt,
		version, configName, makeActive, currentTime, currentTime,
		params.DailyBlocks, params.MinerEmissionShare, params.EpochsPerDay,
		params.BaseTradingFee, params.BaseBorrowingFee, params.Kink, params.Slope1, params.Slope2,
		params.LPFeeShare, params.TradingFeeShare, params.BorrowingFeeShare,
		params.BuybackStartTao, params.BuybackIncrementPerDay,
		params.EmissionHalvingDay, params.PostHalvingEmissionFactor, params.CounterSellFraction,
		params.MinerSellStart, params.MinerSellDecayPerDay, params.MinerSellFloor,
	).Scan(&paramsID)

	if err != nil {
		return 0, fmt.Errorf("failed to insert model parameters: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int("version", version).
		Str("config", configName).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved model parameters")
	return paramsID, nil
}

const modelParameterColumns = `
            daily_blocks, miner_emission_share, epochs_per_day,
            base_trading_fee, base_borrowing_fee, kink, slope1, slope2,
            lp_fee_share, trading_fee_share, borrowing_fee_share,
            buyback_start_tao, buyback_increment_per_day,
            emission_halving_day, post_halving_emission_factor, counter_sell_fraction,
            miner_sell_start, miner_sell_decay_per_day, miner_sell_floor`

// scanModelParameters reads one row of parameter columns in the order of
// modelParameterColumns.
func scanModelParameters(row *sql.Row) (*types.ModelParameters, error) {
	p := &types.ModelParameters{}
	err := row.Scan(
		&p.DailyBlocks, &p.MinerEmissionShare, &p.EpochsPerDay,
		&p.BaseTradingFee, &p.BaseBorrowingFee, &p.Kink, &p.Slope1, &p.Slope2,
		&p.LPFeeShare, &p.TradingFeeShare, &p.BorrowingFeeShare,
		&p.BuybackStartTao, &p.BuybackIncrementPerDay,
		&p.EmissionHalvingDay, &p.PostHalvingEmissionFactor, &p.CounterSellFraction,
		&p.MinerSellStart, &p.MinerSellDecayPerDay, &p.MinerSellFloor,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// LoadActiveModelParameters loads the currently active model parameters.
func LoadActiveModelParameters(configName string) (*types.ModelParameters, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT` + modelParameterColumns + `
        FROM model_parameters
        WHERE config_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	p, err := scanModelParameters(DB.QueryRow(query, configName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no active preset for config '%s'", ErrNoParameters, configName)
		}
		return nil, fmt.Errorf("failed to scan active model parameters for config '%s': %w", configName, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored parameters for config '%s' are invalid: %w", configName, err)
	}

	log.Info().Str("config", configName).Msg("Loaded active model parameters")
	return p, nil
}

// LoadLatestModelParameters loads the most recently activated model
// parameters for a given config name, active or not.
func LoadLatestModelParameters(configName string) (*types.ModelParameters, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT` + modelParameterColumns + `
        FROM model_parameters
        WHERE config_name = $1
        ORDER BY activated_at DESC, created_at DESC
        LIMIT 1;`

	p, err := scanModelParameters(DB.QueryRow(query, configName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no preset for config '%s'", ErrNoParameters, configName)
		}
		return nil, fmt.Errorf("failed to scan latest model parameters for config '%s': %w", configName, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored parameters for config '%s' are invalid: %w", configName, err)
	}

	log.Info().Str("config", configName).Msg("Loaded latest model parameters (by activation/creation time)")
	return p, nil
}

// ListParameterRecords returns every stored preset for a config name, newest
// first, with its identity and activation metadata.
func ListParameterRecords(configName string) ([]types.ParameterRecord, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT
            params_id, config_name, version, is_active, activated_at, created_at,` +
		modelParameterColumns + `
        FROM model_parameters
        WHERE config_name = $1
        ORDER BY version DESC;`

	rows, err := DB.Query(query, configName)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameter records for config '%s': %w", configName, err)
	}
	defer rows.Close()

	var records []types.ParameterRecord
	for rows.Next() {
		var rec types.ParameterRecord
		p := &rec.Params
		err := rows.Scan(
			&rec.ID, &rec.ConfigName, &rec.Version, &rec.Active, &rec.ActivatedAt, &rec.CreatedAt,
			&p.DailyBlocks, &p.MinerEmissionShare, &p.EpochsPerDay,
			&p.BaseTradingFee, &p.BaseBorrowingFee, &p.Kink, &p.Slope1, &p.Slope2,
			&p.LPFeeShare, &p.TradingFeeShare, &p.BorrowingFeeShare,
			&p.BuybackStartTao, &p.BuybackIncrementPerDay,
			&p.EmissionHalvingDay, &p.PostHalvingEmissionFactor, &p.CounterSellFraction,
			&p.MinerSellStart, &p.MinerSellDecayPerDay, &p.MinerSellFloor,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parameter record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate parameter records: %w", err)
	}

	log.Debug().Str("config", configName).Int("count", len(records)).Msg("Listed parameter records")
	return records, nil
}
