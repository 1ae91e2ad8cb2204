package models

import (
	"context"
	"fmt"
	"math"
)

// Baseline is a weightless one-step forecaster combining:
//   - Linear trend detection (slope over the trailing points)
//   - Momentum detection (change in slope between window halves)
//
// It needs no exported network and serves as a fallback backend or a
// reference to compare a trained network against.
//
// Algorithm, for a univariate window x:
//  1. slope = least-squares slope over the last trendWindow points
//  2. momentum = slope(recent half) - slope(older half)
//  3. forecast = x[last] + damping * (slope + 0.5*momentum)
//
// Every step is affine-equivariant, so forecasting in scaled space and
// inverse-scaling equals forecasting in the original unit.
type Baseline struct {
	window  int
	damping float64
}

// trendWindow bounds how many trailing points the slope is fitted on.
const trendWindow = 10

// NewBaseline creates a baseline model over window timesteps. damping in
// [0, 1] scales the extrapolated change; 0 yields pure persistence.
func NewBaseline(window int, damping float64) (*Baseline, error) {
	if window < 2 {
		return nil, fmt.Errorf("baseline window must be >= 2, got %d", window)
	}
	if damping < 0 || damping > 1 || math.IsNaN(damping) {
		return nil, fmt.Errorf("baseline damping must be in [0, 1], got %v", damping)
	}
	return &Baseline{window: window, damping: damping}, nil
}

// Name returns the model identifier.
func (m *Baseline) Name() string {
	return "baseline"
}

// Info describes the baseline model.
func (m *Baseline) Info() Info {
	return Info{
		Name:     m.Name(),
		Backend:  "baseline",
		Window:   m.window,
		Features: 1,
	}
}

// Predict extrapolates one step past seq.
func (m *Baseline) Predict(ctx context.Context, seq [][]float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(seq) != m.window {
		return 0, fmt.Errorf("%w: got %d timesteps, want %d", ErrShape, len(seq), m.window)
	}

	values := make([]float64, len(seq))
	for i, step := range seq {
		if len(step) != 1 {
			return 0, fmt.Errorf("%w: timestep %d has %d features, want 1", ErrShape, i, len(step))
		}
		values[i] = step[0]
	}

	slope := detectTrend(values)
	momentum := detectMomentum(values)

	y := values[len(values)-1] + m.damping*(slope+0.5*momentum)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("non-finite output %v", y)
	}
	return y, nil
}

// detectTrend computes the slope per step from the most recent values
// using simple linear regression.
func detectTrend(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	window := values
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}

	// Simple linear regression: y = a + b*x
	n := float64(len(window))
	sumX := 0.0
	sumY := 0.0
	sumXY := 0.0
	sumX2 := 0.0

	for i, y := range window {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denominator
}

// detectMomentum computes acceleration by comparing recent trend to older trend.
//
// Positive momentum = accelerating upward
// Negative momentum = decelerating or accelerating downward
func detectMomentum(values []float64) float64 {
	if len(values) < 6 {
		return 0 // Need enough data to compare trends
	}

	mid := len(values) / 2
	return detectTrend(values[mid:]) - detectTrend(values[:mid])
}
