package scaler

import (
	"errors"
	"fmt"
	"math"
)

// MinMax rescales each feature to a fixed range.
type MinMax struct {
	scale  []float64
	min    []float64
	lo, hi float64
	clip   bool
}

// NewMinMax creates a MinMax scaler from the fitted per-feature minimum and
// maximum and the target range [lo, hi].
func NewMinMax(dataMin, dataMax []float64, lo, hi float64, clip bool) (*MinMax, error) {
	if len(dataMin) == 0 {
		return nil, errors.New("minmax: data_min cannot be empty")
	}
	if len(dataMin) != len(dataMax) {
		return nil, fmt.Errorf("minmax: data_min has %d features, data_max has %d", len(dataMin), len(dataMax))
	}
	if lo >= hi {
		return nil, fmt.Errorf("minmax: invalid feature_range [%v, %v]", lo, hi)
	}

	s := &MinMax{
		scale: make([]float64, len(dataMin)),
		min:   make([]float64, len(dataMin)),
		lo:    lo,
		hi:    hi,
		clip:  clip,
	}
	for i := range dataMin {
		if math.IsNaN(dataMin[i]) || math.IsInf(dataMin[i], 0) || math.IsNaN(dataMax[i]) || math.IsInf(dataMax[i], 0) {
			return nil, fmt.Errorf("minmax: feature %d has non-finite bounds", i)
		}
		s.scale[i] = (hi - lo) / handleZeros(dataMax[i]-dataMin[i])
		s.min[i] = lo - dataMin[i]*s.scale[i]
	}
	return s, nil
}

// Kind returns "minmax".
func (s *MinMax) Kind() string { return "minmax" }

// Features returns the number of fitted features.
func (s *MinMax) Features() int { return len(s.scale) }

// Transform applies x*scale + min per feature, clipping to the target range
// when the scaler was fitted with clip enabled.
func (s *MinMax) Transform(row []float64) ([]float64, error) {
	if err := checkWidth(row, len(s.scale)); err != nil {
		return nil, fmt.Errorf("minmax transform: %w", err)
	}
	out := make([]float64, len(row))
	for i, x := range row {
		y := x*s.scale[i] + s.min[i]
		if s.clip {
			y = math.Min(math.Max(y, s.lo), s.hi)
		}
		out[i] = y
	}
	return out, nil
}

// InverseTransform applies (y - min) / scale per feature.
func (s *MinMax) InverseTransform(row []float64) ([]float64, error) {
	if err := checkWidth(row, len(s.scale)); err != nil {
		return nil, fmt.Errorf("minmax inverse transform: %w", err)
	}
	out := make([]float64, len(row))
	for i, y := range row {
		out[i] = (y - s.min[i]) / s.scale[i]
	}
	return out, nil
}
