//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/HatiCode/rnncast/cmd/predictor/metrics"
	"github.com/HatiCode/rnncast/cmd/predictor/router"
	"github.com/HatiCode/rnncast/pkg/forecast"
	"github.com/HatiCode/rnncast/pkg/storage"
)

var window = []float64{110.5, 115.2, 112.3, 118.0, 120.5, 125.3, 123.1, 128.6, 130.7, 129.4, 131.0, 132.5}

// TestPredictorRedisE2E serves the shipped artifacts with a Redis-backed
// prediction cache running in a real container.
func TestPredictorRedisE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	redisReq := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: redisReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	defer func() { _ = redisContainer.Terminate(ctx) }()

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis host: %v", err)
	}
	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get redis port: %v", err)
	}

	cache, err := storage.NewRedisStore(fmt.Sprintf("%s:%s", host, port.Port()), "", 0, time.Minute)
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	defer func() { _ = cache.Close() }()

	artifacts, err := forecast.LoadArtifacts("../../models/frozen_dessert_rnn_model.json", "../../models/frozen_dessert_rnn_scaler.json")
	if err != nil {
		t.Fatalf("Failed to load artifacts: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, artifacts.Model.Name())
	predictor := forecast.NewPredictor(artifacts, cache, logger)

	server := httptest.NewServer(router.New(predictor, m, reg, cache.Ping, logger))
	defer server.Close()

	post := func(t *testing.T, values []float64) (int, map[string]any) {
		t.Helper()
		body, _ := json.Marshal(map[string][]float64{"recent_production": values})
		resp, err := http.Post(server.URL+"/predict", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST /predict failed: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()

		var out map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		return resp.StatusCode, out
	}

	want := 1.5*window[11] - 0.5*window[10]

	t.Run("Healthz", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/healthz")
		if err != nil {
			t.Fatalf("GET /healthz failed: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("PredictTwice", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			status, out := post(t, window)
			if status != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %v", status, out)
			}
			got, _ := out["next_month_prediction"].(float64)
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("request %d: prediction = %v, want %v", i, got, want)
			}
		}

		if hits := testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")); hits != 1 {
			t.Errorf("Expected 1 cache hit, got %v", hits)
		}

		w, err := forecast.NewWindow(window)
		if err != nil {
			t.Fatal(err)
		}
		entry, found, err := cache.Get(ctx, forecast.CacheKey(artifacts.Fingerprint, w))
		if err != nil || !found {
			t.Fatalf("Expected cached entry, found=%v err=%v", found, err)
		}
		if entry.Model != "frozen_dessert_rnn" {
			t.Errorf("Expected model frozen_dessert_rnn, got %q", entry.Model)
		}
	})

	t.Run("WrongLength", func(t *testing.T) {
		status, out := post(t, window[:11])
		if status != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", status)
		}
		if out["error"] != "Input must contain exactly 12 values" {
			t.Errorf("Unexpected error body: %v", out)
		}
	})

	t.Run("HealthzAfterRedisStops", func(t *testing.T) {
		if err := redisContainer.Stop(ctx, nil); err != nil {
			t.Fatalf("Failed to stop redis: %v", err)
		}

		resp, err := http.Get(server.URL + "/healthz")
		if err != nil {
			t.Fatalf("GET /healthz failed: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", resp.StatusCode)
		}

		// Predictions keep working without the cache.
		status, out := post(t, window)
		if status != http.StatusOK {
			t.Fatalf("Expected 200 with cache down, got %d: %v", status, out)
		}
	})
}
