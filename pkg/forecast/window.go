// Package forecast implements the one-step-ahead forecast pipeline:
// window validation, forward scaling, model inference and inverse scaling,
// over artifacts loaded once and shared read-only.
package forecast

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// WindowSize is the number of consecutive observations a forecast needs.
const WindowSize = 12

// Client-facing validation messages.
const (
	MsgWindowLength = "Input must contain exactly 12 values"
	MsgNotFinite    = "Input values must be finite numbers"
)

// Window is an ordered run of WindowSize observations, oldest first.
type Window [WindowSize]float64

// NewWindow validates values and copies them into a Window.
func NewWindow(values []float64) (Window, error) {
	var w Window
	if len(values) != WindowSize {
		return w, &ValidationError{Message: MsgWindowLength}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return w, &ValidationError{Message: MsgNotFinite}
		}
		w[i] = v
	}
	return w, nil
}

// CacheKey derives a stable key for w under the given artifact fingerprint.
func CacheKey(fingerprint string, w Window) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	var buf [8]byte
	for _, v := range w {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
