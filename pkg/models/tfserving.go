package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// TFServing delegates inference to a TensorFlow Serving REST endpoint, which
// can load the original SavedModel export without conversion.
//
// Requests use the row format:
//
//	POST {baseURL}/v1/models/{name}:predict
//	{"instances": [[[v1], [v2], ...]]}
//
// and the first scalar of "predictions" is returned.
type TFServing struct {
	endpoint string
	name     string
	window   int
	features int
	client   *http.Client
}

type tfServingRequest struct {
	Instances [][][]float64 `json:"instances"`
}

// NewTFServing creates a model backed by TensorFlow Serving. client may be
// nil, in which case a pooled client with a 30s timeout is used.
func NewTFServing(baseURL, name string, window, features int, client *http.Client) *TFServing {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		}
	}
	return &TFServing{
		endpoint: fmt.Sprintf("%s/v1/models/%s:predict", strings.TrimRight(baseURL, "/"), name),
		name:     name,
		window:   window,
		features: features,
		client:   client,
	}
}

// Name returns the served model name.
func (m *TFServing) Name() string {
	return m.name
}

// Info describes the remote model.
func (m *TFServing) Info() Info {
	return Info{
		Name:     m.name,
		Backend:  "tfserving",
		Window:   m.window,
		Features: m.features,
	}
}

// Predict sends seq as a batch of one and returns the scaled prediction.
func (m *TFServing) Predict(ctx context.Context, seq [][]float64) (float64, error) {
	if len(seq) == 0 {
		return 0, fmt.Errorf("tfserving: %w: empty sequence", ErrShape)
	}
	if m.window > 0 && len(seq) != m.window {
		return 0, fmt.Errorf("tfserving: %w: expected %d timesteps, got %d", ErrShape, m.window, len(seq))
	}

	body, err := json.Marshal(tfServingRequest{Instances: [][][]float64{seq}})
	if err != nil {
		return 0, fmt.Errorf("tfserving: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("tfserving: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("tfserving: http request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("tfserving: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg := gjson.GetBytes(data, "error"); msg.Exists() {
			return 0, fmt.Errorf("tfserving: http %d: %s", resp.StatusCode, msg.String())
		}
		return 0, fmt.Errorf("tfserving: http %d: %s", resp.StatusCode, truncate(string(data), 1024))
	}

	if !gjson.ValidBytes(data) {
		return 0, fmt.Errorf("tfserving: invalid JSON response")
	}

	// Keras sequence-to-one models answer [[y]]; squeezed signatures answer [y].
	pred := gjson.GetBytes(data, "predictions.0")
	if pred.IsArray() {
		pred = pred.Get("0")
	}
	if pred.Type != gjson.Number {
		return 0, fmt.Errorf("tfserving: response has no numeric prediction")
	}
	return pred.Float(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
