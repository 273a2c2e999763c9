package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/subtensor-labs/taosim/internal/config"
	"github.com/subtensor-labs/taosim/internal/engine"
	"github.com/subtensor-labs/taosim/internal/state"
	"github.com/subtensor-labs/taosim/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve the yield curve, reward inspection, whale simulation and reserve
endpoints over HTTP, with Prometheus metrics on /metrics. When DB_* variables
are set the active parameter preset is loaded from the parameter store;
otherwise the built-in defaults apply.

Examples:
  taosim serve
  taosim serve --listen :9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", config.DefaultWebListenAddr, "Address the HTTP server binds to")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	storeConfigured, err := initStateFromEnv()
	if err != nil {
		return err
	}
	defer state.CloseDB()

	modelParams := config.DefaultModelParameters
	if storeConfigured {
		stored, err := state.LoadActiveModelParameters(engine.DEFAULT_PARAMS_CONFIG_NAME)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load active model parameters, using defaults and saving.")
			if _, err := state.SaveModelParameters(modelParams, engine.DEFAULT_PARAMS_CONFIG_NAME, engine.DEFAULT_PARAMS_CONFIG_VERSION, true); err != nil {
				return fmt.Errorf("failed to save initial default model parameters: %w", err)
			}
		} else {
			modelParams = *stored
		}
		log.Info().Msg("Model parameters loaded successfully.")
	}

	eng, err := buildEngine(modelParams)
	if err != nil {
		return err
	}
	warmReserves(eng)

	webServer := web.NewWebServer(serveListen, eng)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", serveListen).Msg("Starting taosim API server")
		if err := webServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// warmReserves probes the oracle once at startup so a dead oracle surfaces
// in the logs immediately instead of on the first request.
func warmReserves(eng *engine.Engine) {
	reserves, err := eng.Reserves()
	if err != nil {
		log.Warn().Err(err).Msg("Reserve oracle not reachable at startup")
		return
	}
	price, err := eng.Price()
	if err != nil {
		log.Warn().Err(err).Msg("Reserve oracle not reachable at startup")
		return
	}
	log.Info().
		Float64("taoReserve", reserves.Tao).
		Float64("alphaReserve", reserves.Alpha).
		Float64("price", price).
		Msg("Reserve oracle reachable")
}
