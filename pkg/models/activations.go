package models

import (
	"fmt"
	"math"
)

type activation func(float64) float64

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// hardSigmoid follows Keras 3: relu6(x + 3) / 6.
func hardSigmoid(x float64) float64 {
	return math.Min(1, math.Max(0, x/6+0.5))
}

func relu(x float64) float64 {
	return math.Max(0, x)
}

func linear(x float64) float64 {
	return x
}

func lookupActivation(name, fallback string) (activation, error) {
	if name == "" {
		name = fallback
	}
	switch name {
	case "linear":
		return linear, nil
	case "tanh":
		return math.Tanh, nil
	case "sigmoid":
		return sigmoid, nil
	case "hard_sigmoid":
		return hardSigmoid, nil
	case "relu":
		return relu, nil
	default:
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
}
