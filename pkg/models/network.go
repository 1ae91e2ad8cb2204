package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Artifact is the JSON layout of an exported recurrent network.
type Artifact struct {
	Name     string      `json:"name"`
	Window   int         `json:"window"`
	Features int         `json:"features"`
	Layers   []LayerSpec `json:"layers"`
}

// Network evaluates a stack of recurrent and dense layers exported from a
// trained Keras Sequential model.
//
// The stack must contain at least one recurrent layer, the last recurrent
// layer must not return sequences, and the final layer must produce exactly
// one unit. Weights are never mutated after construction.
type Network struct {
	name     string
	window   int
	features int
	layers   []layer
}

// LoadNetwork reads a network artifact from path.
func LoadNetwork(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return ParseNetwork(data)
}

// ParseNetwork decodes a network artifact and validates its weights.
func ParseNetwork(data []byte) (*Network, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return NewNetwork(a)
}

// NewNetwork builds a Network from a decoded artifact.
func NewNetwork(a Artifact) (*Network, error) {
	if a.Features <= 0 {
		return nil, errors.New("model: features must be > 0")
	}
	if a.Window < 0 {
		return nil, errors.New("model: window cannot be negative")
	}
	if len(a.Layers) == 0 {
		return nil, errors.New("model: at least one layer is required")
	}

	name := a.Name
	if name == "" {
		name = "rnn"
	}

	n := &Network{
		name:     name,
		window:   a.Window,
		features: a.Features,
		layers:   make([]layer, 0, len(a.Layers)),
	}

	inDim := a.Features
	lastRecurrent := -1
	for i, spec := range a.Layers {
		l, err := buildLayer(spec, inDim)
		if err != nil {
			return nil, fmt.Errorf("model: layer %d: %w", i, err)
		}
		if l.recurrent() {
			lastRecurrent = i
		}
		n.layers = append(n.layers, l)
		inDim = l.units()
	}

	if lastRecurrent < 0 {
		return nil, errors.New("model: at least one recurrent layer is required")
	}
	if n.layers[lastRecurrent].returnsSequences() {
		return nil, fmt.Errorf("model: layer %d is the last recurrent layer and must not return sequences", lastRecurrent)
	}
	if inDim != 1 {
		return nil, fmt.Errorf("model: final layer must have 1 unit, got %d", inDim)
	}

	return n, nil
}

// Name returns the model name from the artifact.
func (n *Network) Name() string {
	return n.name
}

// Window returns the sequence length the network was exported for, or 0 when
// the artifact does not pin one.
func (n *Network) Window() int {
	return n.window
}

// Features returns the per-timestep feature dimension.
func (n *Network) Features() int {
	return n.features
}

// Info describes the layer stack.
func (n *Network) Info() Info {
	kinds := make([]string, len(n.layers))
	for i, l := range n.layers {
		kinds[i] = fmt.Sprintf("%s(%d)", l.kind(), l.units())
	}
	return Info{
		Name:     n.name,
		Backend:  "network",
		Window:   n.window,
		Features: n.features,
		Layers:   kinds,
	}
}

// Predict runs a forward pass over seq laid out as [timestep][feature].
func (n *Network) Predict(ctx context.Context, seq [][]float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(seq) == 0 {
		return 0, fmt.Errorf("%w: empty sequence", ErrShape)
	}
	if n.window > 0 && len(seq) != n.window {
		return 0, fmt.Errorf("%w: expected %d timesteps, got %d", ErrShape, n.window, len(seq))
	}

	xs := make([]*mat.VecDense, len(seq))
	for t, row := range seq {
		if len(row) != n.features {
			return 0, fmt.Errorf("%w: timestep %d has %d features, want %d", ErrShape, t, len(row), n.features)
		}
		data := make([]float64, len(row))
		copy(data, row)
		xs[t] = mat.NewVecDense(len(data), data)
	}

	for _, l := range n.layers {
		xs = l.forward(xs)
	}

	out := xs[len(xs)-1].AtVec(0)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("model produced non-finite output %v", out)
	}
	return out, nil
}
