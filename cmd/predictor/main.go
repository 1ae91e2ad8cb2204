// Command predictor serves next-month production forecasts over HTTP.
//
// At startup it loads a recurrent network and the scaler fitted on the
// training data, then answers:
//   - POST /predict - {"recent_production": [12 values]} -> {"next_month_prediction": v}
//   - GET /model - Loaded model and scaler description
//   - GET /healthz - Health check endpoint
//   - GET /metrics - Prometheus metrics endpoint
//
// Usage:
//
//	predictor \
//	  -model-path=models/frozen_dessert_rnn_model.json \
//	  -scaler-path=models/frozen_dessert_rnn_scaler.json \
//	  -listen=:8080
//
// Environment variables:
//
//	LISTEN           - HTTP listen address (default: :8080)
//	MODEL_BACKEND    - network, tfserving, or baseline (default: network)
//	MODEL_PATH       - Exported network artifact
//	SCALER_PATH      - Exported scaler artifact
//	TFSERVING_URL    - TensorFlow Serving REST base URL
//	TFSERVING_MODEL  - Model name served by TensorFlow Serving
//	BASELINE_DAMPING - Trend damping for the baseline backend (default: 0.5)
//	CACHE            - Prediction cache: none, memory, redis (default: none)
//	CACHE_TTL        - Prediction cache TTL (default: 1h)
//	REDIS_ADDR       - Redis server address (default: localhost:6379)
//	REDIS_PASSWORD   - Redis password
//	REDIS_DB         - Redis database number (default: 0)
//	TLS_ENABLED      - Serve HTTPS (default: false)
//	TLS_CERT_FILE    - TLS certificate file
//	TLS_KEY_FILE     - TLS private key file
//	TLS_CA_FILE      - CA for client certificate verification (enables mTLS)
//	LOG_LEVEL        - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT       - Logging format: text, json (default: text)
package main

import (
	cryptotls "crypto/tls"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/HatiCode/rnncast/cmd/predictor/config"
	"github.com/HatiCode/rnncast/cmd/predictor/logger"
	"github.com/HatiCode/rnncast/cmd/predictor/metrics"
	"github.com/HatiCode/rnncast/cmd/predictor/models"
	"github.com/HatiCode/rnncast/cmd/predictor/router"
	"github.com/HatiCode/rnncast/cmd/predictor/store"
	"github.com/HatiCode/rnncast/pkg/forecast"
	"github.com/HatiCode/rnncast/pkg/httpx"
	"github.com/HatiCode/rnncast/pkg/storage"
	"github.com/HatiCode/rnncast/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting rnncast predictor",
		"version", version,
		"listen", cfg.Listen,
		"model_backend", cfg.ModelBackend,
		"cache", cfg.Cache,
		"tls_enabled", cfg.TLS.Enabled,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	artifacts, err := models.New(cfg, logger)
	if err != nil {
		logger.Error("failed to load artifacts", "error", err)
		os.Exit(1)
	}

	info := artifacts.Model.Info()
	logger.Info("artifacts loaded",
		"model", info.Name,
		"backend", info.Backend,
		"layers", info.Layers,
		"scaler", artifacts.Scaler.Kind(),
		"fingerprint", artifacts.Fingerprint,
	)

	cache, healthCheck, err := store.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create prediction cache", "error", err)
		os.Exit(1)
	}
	var predictionStore storage.Store
	if cache != nil {
		predictionStore = cache
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Error("failed to close prediction cache", "error", err)
			}
		}()
	}

	predictor := forecast.NewPredictor(artifacts, predictionStore, logger)
	m := metrics.New(prometheus.DefaultRegisterer, info.Name)

	handler := router.New(predictor, m, prometheus.DefaultGatherer, healthCheck, logger)

	var serverTLS *cryptotls.Config
	if cfg.TLS.Enabled {
		serverTLS, err = tls.NewServerTLSConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.CAFile)
		if err != nil {
			logger.Error("failed to create TLS config", "error", err)
			os.Exit(1)
		}
	}
	httpServer := httpx.NewServer(cfg.Listen, handler, serverTLS, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
			exitCode = 1
		}
	}

	logger.Info("shutting down")

	if err := httpServer.Stop(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
		exitCode = 1
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		// Deferred cleanup does not run after os.Exit; close the cache first.
		if cache != nil {
			_ = cache.Close()
		}
		os.Exit(exitCode)
	}
}
