// Package scaler provides the fitted feature scalers used to normalize
// forecast windows before inference and to map model outputs back to the
// original unit.
//
// Scalers are produced by the offline training pipeline and exported as JSON.
// Two kinds are supported, mirroring scikit-learn:
//   - minmax: MinMaxScaler, x*scale + min
//   - standard: StandardScaler, (x - mean) / scale
//
// A loaded Scaler is immutable and safe for concurrent use.
package scaler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Scaler is a per-feature linear transform with an exact inverse.
//
// Transform and InverseTransform operate on a single row of features
// (len(row) must equal Features()) and return a new slice.
type Scaler interface {
	// Kind returns the scaler identifier, e.g. "minmax" or "standard".
	Kind() string

	// Features returns the number of features the scaler was fitted on.
	Features() int

	// Transform maps raw values into the normalized space.
	Transform(row []float64) ([]float64, error)

	// InverseTransform maps normalized values back to the original unit.
	InverseTransform(row []float64) ([]float64, error)
}

// Artifact is the JSON layout of an exported scaler.
type Artifact struct {
	Kind string `json:"kind"`

	// minmax
	FeatureRange []float64 `json:"feature_range,omitempty"`
	DataMin      []float64 `json:"data_min,omitempty"`
	DataMax      []float64 `json:"data_max,omitempty"`
	Clip         bool      `json:"clip,omitempty"`

	// standard
	Mean     []float64 `json:"mean,omitempty"`
	Scale    []float64 `json:"scale,omitempty"`
	WithMean *bool     `json:"with_mean,omitempty"`
	WithStd  *bool     `json:"with_std,omitempty"`
}

// Load reads a scaler artifact from path.
func Load(path string) (Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler artifact: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scaler artifact and builds the matching Scaler.
func Parse(data []byte) (Scaler, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode scaler artifact: %w", err)
	}
	return New(a)
}

// New builds a Scaler from a decoded artifact.
func New(a Artifact) (Scaler, error) {
	switch a.Kind {
	case "minmax":
		lo, hi := 0.0, 1.0
		if len(a.FeatureRange) != 0 {
			if len(a.FeatureRange) != 2 {
				return nil, fmt.Errorf("minmax: feature_range must have 2 values, got %d", len(a.FeatureRange))
			}
			lo, hi = a.FeatureRange[0], a.FeatureRange[1]
		}
		return NewMinMax(a.DataMin, a.DataMax, lo, hi, a.Clip)
	case "standard":
		withMean, withStd := true, true
		if a.WithMean != nil {
			withMean = *a.WithMean
		}
		if a.WithStd != nil {
			withStd = *a.WithStd
		}
		return NewStandard(a.Mean, a.Scale, withMean, withStd)
	case "":
		return nil, errors.New("scaler kind is required")
	default:
		return nil, fmt.Errorf("unknown scaler kind %q (must be minmax or standard)", a.Kind)
	}
}

func checkWidth(row []float64, n int) error {
	if len(row) != n {
		return fmt.Errorf("expected %d features, got %d", n, len(row))
	}
	return nil
}

// handleZeros replaces zero scales with 1 so constant features pass through
// unchanged, matching scikit-learn's _handle_zeros_in_scale.
func handleZeros(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
