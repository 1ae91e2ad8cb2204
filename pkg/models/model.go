// Package models provides the forecast models that map a scaled input window
// to a single scaled prediction.
//
// Implementations:
//   - Network: a recurrent network (SimpleRNN, LSTM, GRU, Dense layers)
//     evaluated in-process from a JSON weight export
//   - TFServing: delegates inference to a TensorFlow Serving REST endpoint
//   - Baseline: weightless trend and momentum extrapolation
//
// Models are immutable once constructed and safe for concurrent Predict calls.
package models

import (
	"context"
	"errors"
)

// ErrShape is returned when an input sequence does not match the shape a
// model was built for.
var ErrShape = errors.New("input shape mismatch")

// Model is a sequence-to-one forecaster.
//
// Predict receives a single sequence laid out as [timestep][feature] and
// returns one scaled scalar.
type Model interface {
	// Name returns the model identifier.
	Name() string

	// Predict runs inference on one sequence.
	Predict(ctx context.Context, seq [][]float64) (float64, error)

	// Info describes the model for diagnostics.
	Info() Info
}

// Info is a read-only description of a loaded model.
type Info struct {
	Name     string   `json:"name"`
	Backend  string   `json:"backend"`
	Window   int      `json:"window"`
	Features int      `json:"features"`
	Layers   []string `json:"layers,omitempty"`
}
