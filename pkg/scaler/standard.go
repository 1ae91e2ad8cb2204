package scaler

import (
	"errors"
	"fmt"
)

// Standard removes the mean and divides by the standard deviation.
type Standard struct {
	mean  []float64
	scale []float64
}

// NewStandard creates a Standard scaler. When withMean is false the mean is
// treated as zero; when withStd is false the scale is treated as one.
func NewStandard(mean, scale []float64, withMean, withStd bool) (*Standard, error) {
	n := len(mean)
	if n == 0 {
		n = len(scale)
	}
	if n == 0 {
		return nil, errors.New("standard: mean or scale must be provided")
	}

	s := &Standard{
		mean:  make([]float64, n),
		scale: make([]float64, n),
	}
	for i := range s.scale {
		s.scale[i] = 1
	}

	if withMean {
		if len(mean) != n {
			return nil, fmt.Errorf("standard: mean has %d features, want %d", len(mean), n)
		}
		copy(s.mean, mean)
	}
	if withStd {
		if len(scale) != n {
			return nil, fmt.Errorf("standard: scale has %d features, want %d", len(scale), n)
		}
		for i, v := range scale {
			s.scale[i] = handleZeros(v)
		}
	}
	return s, nil
}

// Kind returns "standard".
func (s *Standard) Kind() string { return "standard" }

// Features returns the number of fitted features.
func (s *Standard) Features() int { return len(s.scale) }

// Transform applies (x - mean) / scale per feature.
func (s *Standard) Transform(row []float64) ([]float64, error) {
	if err := checkWidth(row, len(s.scale)); err != nil {
		return nil, fmt.Errorf("standard transform: %w", err)
	}
	out := make([]float64, len(row))
	for i, x := range row {
		out[i] = (x - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// InverseTransform applies y*scale + mean per feature.
func (s *Standard) InverseTransform(row []float64) ([]float64, error) {
	if err := checkWidth(row, len(s.scale)); err != nil {
		return nil, fmt.Errorf("standard inverse transform: %w", err)
	}
	out := make([]float64, len(row))
	for i, y := range row {
		out[i] = y*s.scale[i] + s.mean[i]
	}
	return out, nil
}
