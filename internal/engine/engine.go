package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/subtensor-labs/taosim/internal/analyzer"
	"github.com/subtensor-labs/taosim/internal/logger"
	"github.com/subtensor-labs/taosim/internal/simulator"
	"github.com/subtensor-labs/taosim/internal/types"
)

const (
	// Export constants for use in main.go
	DEFAULT_PARAMS_CONFIG_NAME    = "default_subnet_model"
	DEFAULT_PARAMS_CONFIG_VERSION = 1
)

// ReserveSource supplies live pool reserves to the engine. It abstracts the
// oracle client so the engine can run against a fake source in tests.
type ReserveSource interface {
	// GetReserves returns the pool reserves for one subnet, cached per session.
	GetReserves(network string, netuid uint64) (types.PoolReserves, error)

	// GetPrice returns the pool's spot price in TAO per alpha.
	GetPrice(network string, netuid uint64) (float64, error)

	// Invalidate drops the cached entry so the next read refetches.
	Invalidate(network string, netuid uint64)
}

// Engine wires the yield analyzer, the whale simulator and the reserve
// oracle behind one session-scoped facade. The CLI and the web server both
// drive it; re-running on changed input is just calling the operation again.
type Engine struct {
	logger   zerolog.Logger
	reserves ReserveSource
	params   types.ModelParameters

	network string
	netuid  uint64

	configName    string
	configVersion int
}

// Config holds the configuration for creating a new Engine instance
type Config struct {
	ReserveSource ReserveSource
	Params        types.ModelParameters
	Network       string
	NetUID        uint64
	ConfigName    string
	ConfigVersion int
}

// NewEngine creates a new Engine instance with dependency injection
func NewEngine(cfg Config) (*Engine, error) {
	if err := validateEngineConfig(cfg); err != nil {
		return nil, fmt.Errorf("engine configuration validation failed: %w", err)
	}

	eng := &Engine{
		logger:        logger.GetForComponent("engine_core"),
		reserves:      cfg.ReserveSource,
		params:        cfg.Params,
		network:       cfg.Network,
		netuid:        cfg.NetUID,
		configName:    cfg.ConfigName,
		configVersion: cfg.ConfigVersion,
	}

	eng.logger.Info().
		Str("configName", eng.configName).
		Int("configVersion", eng.configVersion).
		Str("network", eng.network).
		Uint64("netuid", eng.netuid).
		Msg("Engine instance created successfully with dependency injection")

	return eng, nil
}

// validateEngineConfig validates the engine configuration
func validateEngineConfig(cfg Config) error {
	if cfg.ReserveSource == nil {
		return fmt.Errorf("reserve source cannot be nil")
	}
	if err := cfg.Params.Validate(); err != nil {
		return fmt.Errorf("model parameters invalid: %w", err)
	}
	if cfg.Network == "" {
		return fmt.Errorf("network cannot be empty")
	}
	if cfg.ConfigName == "" {
		return fmt.Errorf("config name cannot be empty")
	}
	if cfg.ConfigVersion <= 0 {
		return fmt.Errorf("config version must be positive")
	}
	return nil
}

// YieldCurve samples APR/APY across the requested TVL range. A zero baseline
// price is resolved to the live pool price before sampling.
func (e *Engine) YieldCurve(req types.CurveRequest) ([]types.CurvePoint, error) {
	baseline, err := e.resolveBaseline(req.Baseline)
	if err != nil {
		return nil, err
	}
	req.Baseline = baseline
	return analyzer.GenerateCurve(req, e.params)
}

// InspectYield returns the full reward breakdown at one TVL, resolving a
// zero baseline price the same way YieldCurve does.
func (e *Engine) InspectYield(tvl float64, baseline types.YieldParams) (types.YieldInspection, error) {
	resolved, err := e.resolveBaseline(baseline)
	if err != nil {
		return types.YieldInspection{}, err
	}
	return analyzer.InspectPoint(tvl, resolved, e.params)
}

// SimulateWhale runs the day-by-day reserve trajectory. When the request
// carries no starting reserves the live pool reserves are fetched first.
func (e *Engine) SimulateWhale(params types.SimulationParams) ([]types.DayRecord, error) {
	resolved, err := e.resolveSimulation(params)
	if err != nil {
		return nil, err
	}
	return simulator.Run(resolved, e.params)
}

// WhaleSummary runs the simulation and condenses it into the whale position
// checkpoints. The full record sequence is returned alongside the summary so
// callers render both without a second run.
func (e *Engine) WhaleSummary(params types.SimulationParams) (types.WhaleSummary, []types.DayRecord, error) {
	resolved, err := e.resolveSimulation(params)
	if err != nil {
		return types.WhaleSummary{}, nil, err
	}

	records, err := simulator.Run(resolved, e.params)
	if err != nil {
		return types.WhaleSummary{}, nil, err
	}

	return simulator.Summary(resolved, records), records, nil
}

// Reserves returns the session's pool reserves, fetching on first use.
func (e *Engine) Reserves() (types.PoolReserves, error) {
	return e.reserves.GetReserves(e.network, e.netuid)
}

// RefreshReserves drops the cached reserves and fetches fresh values.
func (e *Engine) RefreshReserves() (types.PoolReserves, error) {
	e.reserves.Invalidate(e.network, e.netuid)
	return e.reserves.GetReserves(e.network, e.netuid)
}

// Price returns the pool's spot price in TAO per alpha, derived by the
// reserve source from the raw pool values.
func (e *Engine) Price() (float64, error) {
	return e.reserves.GetPrice(e.network, e.netuid)
}

// Parameters returns the model parameters the engine was built with.
func (e *Engine) Parameters() types.ModelParameters {
	return e.params
}

// ConfigName returns the name of the active parameter preset.
func (e *Engine) ConfigName() string {
	return e.configName
}

// ConfigVersion returns the version of the active parameter preset.
func (e *Engine) ConfigVersion() int {
	return e.configVersion
}

// resolveBaseline fills a zero price from the oracle. Negative prices pass
// through so the analyzer rejects them with its own validation error.
func (e *Engine) resolveBaseline(baseline types.YieldParams) (types.YieldParams, error) {
	if baseline.Price != 0 {
		return baseline, nil
	}

	price, err := e.reserves.GetPrice(e.network, e.netuid)
	if err != nil {
		return types.YieldParams{}, fmt.Errorf("failed to resolve live alpha price: %w", err)
	}

	e.logger.Debug().
		Float64("price", price).
		Str("network", e.network).
		Uint64("netuid", e.netuid).
		Msg("Resolved baseline price from live pool reserves")

	baseline.Price = price
	return baseline, nil
}

// resolveSimulation fills empty starting reserves from the oracle. A request
// with only one side set is left alone so simulator validation rejects it.
func (e *Engine) resolveSimulation(params types.SimulationParams) (types.SimulationParams, error) {
	if params.InitialReserves.Tao != 0 || params.InitialReserves.Alpha != 0 {
		return params, nil
	}

	reserves, err := e.reserves.GetReserves(e.network, e.netuid)
	if err != nil {
		return types.SimulationParams{}, fmt.Errorf("failed to resolve live pool reserves: %w", err)
	}

	e.logger.Debug().
		Float64("taoReserve", reserves.Tao).
		Float64("alphaReserve", reserves.Alpha).
		Str("network", e.network).
		Uint64("netuid", e.netuid).
		Msg("Resolved starting reserves from live pool")

	params.InitialReserves = reserves
	return params, nil
}
