/*
This file fetches subnet pool reserves from the external oracle API.

Reserve values arrive as integer rao strings and are converted to float64 TAO
amounts, cached raw per (network, netuid) for the lifetime of the session and
refreshed only on explicit invalidation. GetReserves floors each side at 1.0
so downstream pool math never sees an empty side; GetPrice divides the raw
values, defaulting to 1.0 when the alpha side is empty.
*/

package datafetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/subtensor-labs/taosim/internal/logger"
	"github.com/subtensor-labs/taosim/internal/types"
	"github.com/subtensor-labs/taosim/internal/utils"
)

var reserveLogger = logger.GetForComponent("reserve_retriever")

var ErrOracleUnavailable = errors.New("reserve oracle unavailable")
var ErrInvalidReserveData = errors.New("invalid reserve data received")
var ErrPoolNotFound = errors.New("subnet pool not found in oracle response")

const (
	POOL_ENDPOINT_PATH = "/api/dtao/pool/v1"
	MAX_RETRIES        = 3
	TIMEOUT_SECONDS    = 30
	MIN_RESERVE        = 1.0 // Floor per reserve side, in native pool units.
)

// poolInfoResponse mirrors the oracle's pool listing payload.
type poolInfoResponse struct {
	Data []struct {
		NetUID  uint64 `json:"netuid"`
		TaoIn   string `json:"tao_in"`
		AlphaIn string `json:"alpha_in"`
	} `json:"data"`
}

type cacheKey struct {
	network string
	netuid  uint64
}

// ReserveClient fetches pool reserves and memoizes them per pool. Repeated
// curve and simulation calls within one session hit the oracle once; callers
// force a refetch through Invalidate.
type ReserveClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration

	mu    sync.RWMutex
	cache map[cacheKey]types.PoolReserves // raw values as reported by the oracle
}

// NewReserveClient creates a client against the given oracle base URL. The
// API key is optional; when set it is sent as the Authorization header.
func NewReserveClient(baseURL, apiKey string) *ReserveClient {
	return &ReserveClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: TIMEOUT_SECONDS * time.Second,
		},
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
		cache: make(map[cacheKey]types.PoolReserves),
	}
}

// GetReserves returns the reserves for one subnet pool with each side floored
// at MIN_RESERVE, serving the cached value when present and fetching from the
// oracle otherwise.
func (c *ReserveClient) GetReserves(network string, netuid uint64) (types.PoolReserves, error) {
	raw, err := c.lookup(network, netuid)
	if err != nil {
		return types.PoolReserves{}, err
	}
	return types.PoolReserves{
		Tao:   math.Max(MIN_RESERVE, raw.Tao),
		Alpha: math.Max(MIN_RESERVE, raw.Alpha),
	}, nil
}

// GetPrice returns the pool's spot price in TAO per alpha, derived from the
// raw cached values before any reserve flooring. An empty alpha side yields
// the 1.0 default price.
func (c *ReserveClient) GetPrice(network string, netuid uint64) (float64, error) {
	raw, err := c.lookup(network, netuid)
	if err != nil {
		return 0, err
	}
	return raw.Price(), nil
}

// lookup returns the raw reserves for one pool, serving the cached entry when
// present and fetching from the oracle otherwise.
func (c *ReserveClient) lookup(network string, netuid uint64) (types.PoolReserves, error) {
	key := cacheKey{network: network, netuid: netuid}

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		reserveLogger.Debug().
			Str("network", network).
			Uint64("netuid", netuid).
			Float64("taoReserve", cached.Tao).
			Float64("alphaReserve", cached.Alpha).
			Msg("Serving cached pool reserves")
		return cached, nil
	}

	reserves, err := c.fetchReserves(network, netuid)
	if err != nil {
		return types.PoolReserves{}, err
	}

	c.mu.Lock()
	c.cache[key] = reserves
	c.mu.Unlock()

	return reserves, nil
}

// Invalidate drops the cached entry for one pool so the next GetReserves
// fetches fresh values.
func (c *ReserveClient) Invalidate(network string, netuid uint64) {
	c.mu.Lock()
	delete(c.cache, cacheKey{network: network, netuid: netuid})
	c.mu.Unlock()

	reserveLogger.Info().
		Str("network", network).
		Uint64("netuid", netuid).
		Msg("Pool reserve cache entry invalidated")
}

// InvalidateAll drops every cached entry.
func (c *ReserveClient) InvalidateAll() {
	c.mu.Lock()
	c.cache = make(map[cacheKey]types.PoolReserves)
	c.mu.Unlock()

	reserveLogger.Info().Msg("Pool reserve cache cleared")
}

// fetchReserves performs the oracle request with retries.
func (c *ReserveClient) fetchReserves(network string, netuid uint64) (types.PoolReserves, error) {
	url := fmt.Sprintf("%s%s?network=%s&netuid=%d", c.baseURL, POOL_ENDPOINT_PATH, network, netuid)

	var lastErr error
	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		reserveLogger.Debug().
			Str("network", network).
			Uint64("netuid", netuid).
			Int("attempt", attempt).
			Int("maxRetries", MAX_RETRIES).
			Msg("Requesting pool reserves from oracle")

		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return types.PoolReserves{}, fmt.Errorf("failed to build oracle request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed on attempt %d: %w", attempt, err)
			reserveLogger.Warn().
				Err(err).
				Uint64("netuid", netuid).
				Int("attempt", attempt).
				Msg("Oracle request failed, will retry if attempts remain")
			if attempt < MAX_RETRIES {
				time.Sleep(c.backoff(attempt))
				continue
			}
			break
		}

		reserves, err := c.processReserveResponse(resp, netuid)
		if err != nil {
			lastErr = err
			if attempt < MAX_RETRIES {
				reserveLogger.Warn().
					Err(err).
					Uint64("netuid", netuid).
					Int("attempt", attempt).
					Msg("Oracle response processing failed, will retry if attempts remain")
				time.Sleep(c.backoff(attempt))
				continue
			}
			break
		}
		return reserves, nil
	}

	reserveLogger.Error().
		Err(lastErr).
		Str("network", network).
		Uint64("netuid", netuid).
		Int("maxRetries", MAX_RETRIES).
		Msg("All oracle retry attempts failed")
	return types.PoolReserves{}, errors.Join(ErrOracleUnavailable, lastErr)
}

// processReserveResponse validates the HTTP response and extracts the
// requested pool's reserves.
func (c *ReserveClient) processReserveResponse(resp *http.Response, netuid uint64) (types.PoolReserves, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.PoolReserves{}, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.PoolReserves{}, fmt.Errorf("failed to read oracle response body: %w", err)
	}
	if len(body) == 0 {
		return types.PoolReserves{}, errors.New("empty oracle response body")
	}

	var poolResp poolInfoResponse
	if err := json.Unmarshal(body, &poolResp); err != nil {
		return types.PoolReserves{}, fmt.Errorf("failed to parse oracle response: %w", err)
	}

	for _, pool := range poolResp.Data {
		if pool.NetUID != netuid {
			continue
		}
		return parsePoolReserves(pool.TaoIn, pool.AlphaIn, netuid)
	}

	return types.PoolReserves{}, fmt.Errorf("%w: netuid %d", ErrPoolNotFound, netuid)
}

// parsePoolReserves converts the oracle's rao strings into TAO-unit floats,
// keeping the raw values; the reserve view floors them on read.
func parsePoolReserves(taoIn, alphaIn string, netuid uint64) (types.PoolReserves, error) {
	taoRao, err := utils.ParseRao(taoIn)
	if err != nil {
		return types.PoolReserves{}, errors.Join(ErrInvalidReserveData, fmt.Errorf("tao_in: %w", err))
	}
	alphaRao, err := utils.ParseRao(alphaIn)
	if err != nil {
		return types.PoolReserves{}, errors.Join(ErrInvalidReserveData, fmt.Errorf("alpha_in: %w", err))
	}

	tao, err := utils.RaoToTao(taoRao)
	if err != nil {
		return types.PoolReserves{}, errors.Join(ErrInvalidReserveData, fmt.Errorf("tao_in: %w", err))
	}
	alpha, err := utils.RaoToTao(alphaRao)
	if err != nil {
		return types.PoolReserves{}, errors.Join(ErrInvalidReserveData, fmt.Errorf("alpha_in: %w", err))
	}

	reserves := types.PoolReserves{Tao: tao, Alpha: alpha}

	reserveLogger.Info().
		Uint64("netuid", netuid).
		Float64("taoReserve", tao).
		Float64("alphaReserve", alpha).
		Bool("belowFloor", tao < MIN_RESERVE || alpha < MIN_RESERVE).
		Msg("Pool reserves retrieved")

	return reserves, nil
}
