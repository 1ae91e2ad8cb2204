package models

import (
	"context"
	"errors"
	"math"
	"testing"
)

func column(values ...float64) [][]float64 {
	seq := make([][]float64, len(values))
	for i, v := range values {
		seq[i] = []float64{v}
	}
	return seq
}

func TestBaseline_Name(t *testing.T) {
	model, err := NewBaseline(12, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := model.Name(); got != "baseline" {
		t.Errorf("Name() = %q, want %q", got, "baseline")
	}
	if info := model.Info(); info.Window != 12 || info.Features != 1 || info.Backend != "baseline" {
		t.Errorf("Info() = %+v", info)
	}
}

func TestNewBaseline_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		damping float64
	}{
		{"window too short", 1, 0.5},
		{"negative damping", 12, -0.1},
		{"damping above one", 12, 1.5},
		{"nan damping", 12, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBaseline(tt.window, tt.damping); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBaseline_Predict(t *testing.T) {
	tests := []struct {
		name    string
		damping float64
		values  []float64
		want    float64
	}{
		{
			name:    "constant series",
			damping: 1,
			values:  []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
			want:    100,
		},
		{
			name:    "linear trend",
			damping: 1,
			values:  []float64{1, 3, 5, 7, 9, 11, 13, 15, 17, 19, 21, 23},
			want:    25,
		},
		{
			name:    "damped trend",
			damping: 0.5,
			values:  []float64{1, 3, 5, 7, 9, 11, 13, 15, 17, 19, 21, 23},
			want:    24,
		},
		{
			name:    "persistence",
			damping: 0,
			values:  []float64{5, 1, 9, 2, 8, 3, 7, 4, 6, 5, 5, 42},
			want:    42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := NewBaseline(len(tt.values), tt.damping)
			if err != nil {
				t.Fatal(err)
			}

			got, err := model.Predict(context.Background(), column(tt.values...))
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Predict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBaseline_AffineEquivariant(t *testing.T) {
	model, err := NewBaseline(12, 0.8)
	if err != nil {
		t.Fatal(err)
	}

	raw := []float64{110.5, 115.2, 112.3, 118.0, 120.5, 125.3, 123.1, 128.6, 130.7, 129.4, 131.0, 132.5}
	const scale, offset = 1 / 137.5, -0.42

	scaled := make([]float64, len(raw))
	for i, v := range raw {
		scaled[i] = v*scale + offset
	}

	yRaw, err := model.Predict(context.Background(), column(raw...))
	if err != nil {
		t.Fatal(err)
	}
	yScaled, err := model.Predict(context.Background(), column(scaled...))
	if err != nil {
		t.Fatal(err)
	}

	if back := (yScaled - offset) / scale; math.Abs(back-yRaw) > 1e-9 {
		t.Errorf("scaled forecast maps back to %v, raw forecast is %v", back, yRaw)
	}
}

func TestBaseline_ShapeErrors(t *testing.T) {
	model, err := NewBaseline(12, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := model.Predict(context.Background(), column(1, 2, 3)); !errors.Is(err, ErrShape) {
		t.Errorf("short window error = %v, want ErrShape", err)
	}

	seq := column(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	seq[4] = []float64{5, 5}
	if _, err := model.Predict(context.Background(), seq); !errors.Is(err, ErrShape) {
		t.Errorf("wide timestep error = %v, want ErrShape", err)
	}
}

func TestBaseline_Cancelled(t *testing.T) {
	model, err := NewBaseline(12, 1)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := model.Predict(ctx, column(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)); !errors.Is(err, context.Canceled) {
		t.Errorf("Predict() error = %v, want context.Canceled", err)
	}
}

func TestDetectTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{3}, 0},
		{"flat", []float64{4, 4, 4, 4}, 0},
		{"rising", []float64{0, 2, 4, 6}, 2},
		{"falling", []float64{9, 6, 3, 0}, -3},
		// Only the trailing ten points are fitted.
		{"long series", []float64{100, -100, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectTrend(tt.values); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("detectTrend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectMomentum(t *testing.T) {
	quadratic := make([]float64, 12)
	for i := range quadratic {
		quadratic[i] = float64(i * i)
	}

	// Older half slope is 5, recent half slope is 17.
	if got := detectMomentum(quadratic); math.Abs(got-12) > 1e-9 {
		t.Errorf("detectMomentum(quadratic) = %v, want 12", got)
	}
	if got := detectMomentum([]float64{1, 2, 3}); got != 0 {
		t.Errorf("detectMomentum(short) = %v, want 0", got)
	}
}
