package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/HatiCode/rnncast/pkg/models"
	"github.com/HatiCode/rnncast/pkg/storage"
)

// Prediction is one forecast in the original unit.
type Prediction struct {
	Value  float64
	Model  string
	Cached bool
}

// Info describes the artifacts a Predictor serves.
type Info struct {
	Model       models.Info `json:"model"`
	Scaler      string      `json:"scaler"`
	Window      int         `json:"window"`
	Fingerprint string      `json:"fingerprint"`
}

// Predictor runs the forecast pipeline over shared artifacts.
//
// It holds no mutable state of its own; the optional cache store carries
// its own synchronization.
type Predictor struct {
	artifacts *Artifacts
	cache     storage.Store
	logger    *slog.Logger
}

// NewPredictor creates a Predictor. cache may be nil to disable caching.
func NewPredictor(artifacts *Artifacts, cache storage.Store, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{
		artifacts: artifacts,
		cache:     cache,
		logger:    logger,
	}
}

// Info returns the served model description.
func (p *Predictor) Info() Info {
	return Info{
		Model:       p.artifacts.Model.Info(),
		Scaler:      p.artifacts.Scaler.Kind(),
		Window:      WindowSize,
		Fingerprint: p.artifacts.Fingerprint,
	}
}

// CacheEnabled reports whether predictions are cached.
func (p *Predictor) CacheEnabled() bool {
	return p.cache != nil
}

// PredictValues validates values and forecasts the next observation.
// Invalid input yields *ValidationError.
func (p *Predictor) PredictValues(ctx context.Context, values []float64) (Prediction, error) {
	w, err := NewWindow(values)
	if err != nil {
		return Prediction{}, err
	}
	return p.Predict(ctx, w)
}

// Predict forecasts the observation following w.
//
// The window is forward-scaled as a (12, 1) column, fed to the model as a
// batch of one (1, 12, 1) sequence, and the scaled output is inverse-scaled.
func (p *Predictor) Predict(ctx context.Context, w Window) (Prediction, error) {
	modelName := p.artifacts.Model.Name()

	var key string
	if p.cache != nil {
		key = CacheKey(p.artifacts.Fingerprint, w)
		entry, found, err := p.cache.Get(ctx, key)
		if err != nil {
			p.logger.Warn("prediction cache lookup failed", "error", err)
		} else if found {
			return Prediction{Value: entry.Value, Model: entry.Model, Cached: true}, nil
		}
	}

	seq := make([][]float64, WindowSize)
	for i, v := range w {
		scaled, err := p.artifacts.Scaler.Transform([]float64{v})
		if err != nil {
			return Prediction{}, fmt.Errorf("scale input: %w", err)
		}
		seq[i] = scaled
	}

	y, err := p.artifacts.Model.Predict(ctx, seq)
	if err != nil {
		return Prediction{}, fmt.Errorf("model %s: %w", modelName, err)
	}

	out, err := p.artifacts.Scaler.InverseTransform([]float64{y})
	if err != nil {
		return Prediction{}, fmt.Errorf("inverse scale output: %w", err)
	}
	value := out[0]
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Prediction{}, fmt.Errorf("non-finite prediction %v", value)
	}

	if p.cache != nil {
		entry := storage.Entry{Key: key, Value: value, Model: modelName, CreatedAt: time.Now()}
		if err := p.cache.Put(ctx, entry); err != nil {
			p.logger.Warn("prediction cache write failed", "error", err)
		}
	}

	return Prediction{Value: value, Model: modelName}, nil
}
