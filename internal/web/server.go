package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/subtensor-labs/taosim/internal/analyzer"
	"github.com/subtensor-labs/taosim/internal/config"
	"github.com/subtensor-labs/taosim/internal/datafetcher"
	"github.com/subtensor-labs/taosim/internal/engine"
	"github.com/subtensor-labs/taosim/internal/logger"
	"github.com/subtensor-labs/taosim/internal/simulator"
	"github.com/subtensor-labs/taosim/internal/state"
	"github.com/subtensor-labs/taosim/internal/types"
	"github.com/subtensor-labs/taosim/internal/utils"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the curve and simulation operations as a JSON API
type WebServer struct {
	router     *mux.Router
	listenAddr string
	engine     *engine.Engine
	server     *http.Server
}

// NewWebServer creates a new web server instance around an engine
func NewWebServer(listenAddr string, eng *engine.Engine) *WebServer {
	if listenAddr == "" {
		listenAddr = config.DefaultWebListenAddr
	}

	server := &WebServer{
		router:     mux.NewRouter(),
		listenAddr: listenAddr,
		engine:     eng,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// Prometheus scrape endpoint
	ws.router.Handle("/metrics", metricsHandler()).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/curve", ws.handleCurve).Methods("GET")
	api.HandleFunc("/rewards", ws.handleRewards).Methods("GET")
	api.HandleFunc("/simulation", ws.handleSimulation).Methods("GET")
	api.HandleFunc("/simulation/summary", ws.handleSimulationSummary).Methods("GET")
	api.HandleFunc("/parameters", ws.handleParameters).Methods("GET")
	api.HandleFunc("/reserves", ws.handleReserves).Methods("GET")
	api.HandleFunc("/reserves/refresh", ws.handleRefreshReserves).Methods("POST")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.requestIDMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server and blocks until it stops
func (ws *WebServer) Start() error {
	webLogger.Info().Str("listenAddr", ws.listenAddr).Msg("Starting web server")

	ws.server = &http.Server{
		Addr:         ws.listenAddr,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return ws.server.ListenAndServe()
}

// Shutdown stops the server, letting in-flight requests finish
func (ws *WebServer) Shutdown(ctx context.Context) error {
	if ws.server == nil {
		return nil
	}
	webLogger.Info().Msg("Shutting down web server")
	return ws.server.Shutdown(ctx)
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	// The parameter store is optional; only a configured-but-unreachable
	// database degrades health.
	dbConfigured := state.DB != nil
	dbHealthy := true
	if dbConfigured {
		if err := state.TestDBConnection(); err != nil {
			dbHealthy = false
		}
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "taosim-subnet-pool-simulator",
			"version": "1.0.0",
		},
		"parameter_store": map[string]interface{}{
			"configured": dbConfigured,
			"healthy":    dbHealthy,
		},
		"model": map[string]interface{}{
			"config_name":    ws.engine.ConfigName(),
			"config_version": ws.engine.ConfigVersion(),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleCurve returns APR/APY samples across a TVL range
func (ws *WebServer) handleCurve(w http.ResponseWriter, r *http.Request) {
	req, err := parseCurveRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	timer := prometheus.NewTimer(webMetrics.ComputeDuration.WithLabelValues("curve"))
	points, err := ws.engine.YieldCurve(req)
	timer.ObserveDuration()
	if err != nil {
		ws.writeComputationError(w, err, "Failed to generate yield curve")
		return
	}

	response := map[string]interface{}{
		"request": req,
		"points":  points,
		"count":   len(points),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleRewards returns the reward breakdown at a single TVL
func (ws *WebServer) handleRewards(w http.ResponseWriter, r *http.Request) {
	tvl, err := queryFloat(r, "tvl", config.DefaultCurveMinTVL)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	baseline, err := parseBaseline(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	timer := prometheus.NewTimer(webMetrics.ComputeDuration.WithLabelValues("rewards"))
	inspection, err := ws.engine.InspectYield(tvl, baseline)
	timer.ObserveDuration()
	if err != nil {
		ws.writeComputationError(w, err, "Failed to compute reward breakdown")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, inspection)
}

// handleSimulation returns the full day-by-day simulation records
func (ws *WebServer) handleSimulation(w http.ResponseWriter, r *http.Request) {
	params, err := parseSimulationParams(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	timer := prometheus.NewTimer(webMetrics.ComputeDuration.WithLabelValues("simulation"))
	records, err := ws.engine.SimulateWhale(params)
	timer.ObserveDuration()
	if err != nil {
		ws.writeComputationError(w, err, "Failed to run simulation")
		return
	}

	response := map[string]interface{}{
		"records": records,
		"count":   len(records),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleSimulationSummary returns the whale position checkpoints
func (ws *WebServer) handleSimulationSummary(w http.ResponseWriter, r *http.Request) {
	params, err := parseSimulationParams(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	timer := prometheus.NewTimer(webMetrics.ComputeDuration.WithLabelValues("summary"))
	summary, records, err := ws.engine.WhaleSummary(params)
	timer.ObserveDuration()
	if err != nil {
		ws.writeComputationError(w, err, "Failed to run simulation")
		return
	}

	response := map[string]interface{}{
		"summary":        summary,
		"days_simulated": len(records),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleParameters returns the active model parameters
func (ws *WebServer) handleParameters(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"config_name":    ws.engine.ConfigName(),
		"config_version": ws.engine.ConfigVersion(),
		"parameters":     ws.engine.Parameters(),
		"timestamp":      time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleReserves returns the session's pool reserves
func (ws *WebServer) handleReserves(w http.ResponseWriter, r *http.Request) {
	reserves, err := ws.engine.Reserves()
	if err != nil {
		ws.writeComputationError(w, err, "Failed to retrieve pool reserves")
		return
	}
	price, err := ws.engine.Price()
	if err != nil {
		ws.writeComputationError(w, err, "Failed to retrieve pool price")
		return
	}

	ws.writeReservesResponse(w, reserves, price)
}

// handleRefreshReserves drops the reserve cache and returns fresh values
func (ws *WebServer) handleRefreshReserves(w http.ResponseWriter, r *http.Request) {
	reserves, err := ws.engine.RefreshReserves()
	if err != nil {
		ws.writeComputationError(w, err, "Failed to refresh pool reserves")
		return
	}
	price, err := ws.engine.Price()
	if err != nil {
		ws.writeComputationError(w, err, "Failed to retrieve pool price")
		return
	}

	ws.writeReservesResponse(w, reserves, price)
}

// writeReservesResponse emits the floored reserves in both TAO floats and
// integer rao strings, alongside the raw-value spot price.
func (ws *WebServer) writeReservesResponse(w http.ResponseWriter, reserves types.PoolReserves, price float64) {
	taoRao, err := utils.TaoToRao(reserves.Tao)
	if err != nil {
		webLogger.Error().Err(err).Float64("taoReserve", reserves.Tao).Msg("Failed to convert tao reserve to rao")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to encode pool reserves")
		return
	}
	alphaRao, err := utils.TaoToRao(reserves.Alpha)
	if err != nil {
		webLogger.Error().Err(err).Float64("alphaReserve", reserves.Alpha).Msg("Failed to convert alpha reserve to rao")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to encode pool reserves")
		return
	}

	response := map[string]interface{}{
		"tao_reserve":       reserves.Tao,
		"alpha_reserve":     reserves.Alpha,
		"tao_reserve_rao":   taoRao.String(),
		"alpha_reserve_rao": alphaRao.String(),
		"price":             price,
		"timestamp":         time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// parseCurveRequest maps query parameters onto a curve request
func parseCurveRequest(r *http.Request) (types.CurveRequest, error) {
	minTVL, err := queryFloat(r, "min_tvl", config.DefaultCurveMinTVL)
	if err != nil {
		return types.CurveRequest{}, err
	}
	maxTVL, err := queryFloat(r, "max_tvl", config.DefaultCurveMaxTVL)
	if err != nil {
		return types.CurveRequest{}, err
	}
	points, err := queryInt(r, "points", config.DefaultCurvePoints)
	if err != nil {
		return types.CurveRequest{}, err
	}
	baseline, err := parseBaseline(r)
	if err != nil {
		return types.CurveRequest{}, err
	}

	return types.CurveRequest{
		MinTVL:   minTVL,
		MaxTVL:   maxTVL,
		Points:   points,
		Baseline: baseline,
	}, nil
}

// parseBaseline maps the shared market-input query parameters
func parseBaseline(r *http.Request) (types.YieldParams, error) {
	turnover, err := queryFloat(r, "turnover", config.DefaultTurnoverRate)
	if err != nil {
		return types.YieldParams{}, err
	}
	utilization, err := queryFloat(r, "utilization", config.DefaultUtilizationRate)
	if err != nil {
		return types.YieldParams{}, err
	}
	price, err := queryFloat(r, "price", config.DefaultAlphaPrice)
	if err != nil {
		return types.YieldParams{}, err
	}
	burn, err := queryFloat(r, "burn", config.DefaultBurnPercentage)
	if err != nil {
		return types.YieldParams{}, err
	}

	return types.YieldParams{
		TurnoverRate:    turnover,
		UtilizationRate: utilization,
		Price:           price,
		BurnPercentage:  burn,
	}, nil
}

// parseSimulationParams maps query parameters onto simulation params
func parseSimulationParams(r *http.Request) (types.SimulationParams, error) {
	days, err := queryInt(r, "days", config.DefaultSimulationDays)
	if err != nil {
		return types.SimulationParams{}, err
	}
	whaleDailyBuy, err := queryFloat(r, "whale_daily_buy", config.DefaultWhaleDailyBuyTao)
	if err != nil {
		return types.SimulationParams{}, err
	}
	buyDays, err := queryInt(r, "buy_days", config.DefaultBuyDays)
	if err != nil {
		return types.SimulationParams{}, err
	}
	buyback, err := queryBool(r, "buyback", config.DefaultIncludeBuyback)
	if err != nil {
		return types.SimulationParams{}, err
	}
	taoReserve, err := queryFloat(r, "tao_reserve", 0)
	if err != nil {
		return types.SimulationParams{}, err
	}
	alphaReserve, err := queryFloat(r, "alpha_reserve", 0)
	if err != nil {
		return types.SimulationParams{}, err
	}

	return types.SimulationParams{
		Days:             days,
		InitialReserves:  types.PoolReserves{Tao: taoReserve, Alpha: alphaReserve},
		WhaleDailyBuyTao: whaleDailyBuy,
		BuyDays:          buyDays,
		IncludeBuyback:   buyback,
	}, nil
}

// queryFloat reads a float query parameter, falling back to a default
func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %q", key, raw)
	}
	return value, nil
}

// queryInt reads an integer query parameter, falling back to a default
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %q", key, raw)
	}
	return value, nil
}

// queryBool reads a boolean query parameter, falling back to a default
func queryBool(r *http.Request, key string, def bool) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s parameter: %q", key, raw)
	}
	return value, nil
}

// writeComputationError classifies an engine error into an HTTP status
func (ws *WebServer) writeComputationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, datafetcher.ErrOracleUnavailable):
		webLogger.Error().Err(err).Msg("Oracle unavailable while serving request")
		ws.writeErrorResponse(w, http.StatusBadGateway, "Reserve oracle unavailable")
	case errors.Is(err, analyzer.ErrInvalidCurveRequest),
		errors.Is(err, analyzer.ErrInvalidYieldParams),
		errors.Is(err, simulator.ErrInvalidSimulationParams),
		errors.Is(err, types.ErrInvalidModelParameters):
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		webLogger.Error().Err(err).Msg("Request failed")
		ws.writeErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type contextKey string

const requestIDKey contextKey = "request_id"

// requestIDMiddleware tags each request with a short unique ID, echoed in the
// X-Request-ID header and carried in the request context for the logger.
func (ws *WebServer) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests and records request metrics
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		requestID, _ := r.Context().Value(requestIDKey).(string)

		webMetrics.RequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(wrapper.statusCode)).Inc()
		webMetrics.RequestDuration.WithLabelValues(path).Observe(duration.Seconds())

		webLogger.Info().
			Str("requestId", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
