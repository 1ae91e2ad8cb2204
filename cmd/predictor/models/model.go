package models

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/HatiCode/rnncast/cmd/predictor/config"
	"github.com/HatiCode/rnncast/pkg/forecast"
	"github.com/HatiCode/rnncast/pkg/httpx"
	"github.com/HatiCode/rnncast/pkg/models"
	"github.com/HatiCode/rnncast/pkg/tls"
)

// tfServingTimeout bounds a single remote inference call.
const tfServingTimeout = 10 * time.Second

// New loads the model and scaler artifacts selected by cfg.
// Failures are returned as *forecast.ArtifactLoadError.
func New(cfg *config.Config, logger *slog.Logger) (*forecast.Artifacts, error) {
	switch cfg.ModelBackend {
	case config.BackendNetwork:
		logger.Info("loading network artifacts",
			"model_path", cfg.ModelPath,
			"scaler_path", cfg.ScalerPath,
		)
		return forecast.LoadArtifacts(cfg.ModelPath, cfg.ScalerPath)

	case config.BackendTFServing:
		logger.Info("initializing TensorFlow Serving model",
			"url", cfg.TFServingURL,
			"model", cfg.TFServingModel,
			"scaler_path", cfg.ScalerPath,
		)
		// Outbound calls use plain transport; the server TLS settings do not apply.
		client, err := httpx.NewClient(tls.Config{}, tfServingTimeout)
		if err != nil {
			return nil, &forecast.ArtifactLoadError{Artifact: "model", Err: err}
		}
		m := models.NewTFServing(cfg.TFServingURL, cfg.TFServingModel, forecast.WindowSize, 1, client)
		return forecast.LoadRemoteArtifacts(m, cfg.ScalerPath)

	case config.BackendBaseline:
		logger.Info("initializing baseline model",
			"damping", cfg.BaselineDamp,
			"scaler_path", cfg.ScalerPath,
		)
		m, err := models.NewBaseline(forecast.WindowSize, cfg.BaselineDamp)
		if err != nil {
			return nil, &forecast.ArtifactLoadError{Artifact: "model", Err: err}
		}
		return forecast.LoadRemoteArtifacts(m, cfg.ScalerPath)

	default:
		return nil, &forecast.ArtifactLoadError{
			Artifact: "model",
			Err:      fmt.Errorf("invalid model backend %q", cfg.ModelBackend),
		}
	}
}
