// Package router configures HTTP routes for the predictor's HTTP API.
//
// Routes configured:
//   - POST /predict - Forecast next month's production from the last 12 months
//   - GET /model - Describe the loaded model and scaler
//   - GET /healthz - Health check endpoint
//   - GET /metrics - Prometheus metrics endpoint
//
// The /predict endpoint accepts {"recent_production": [v1, ..., v12]} and
// responds with {"next_month_prediction": <float>}. Client errors are returned
// as 400 {"error": "<message>"}; all other failures are logged and returned as
// a generic 500.
package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"

	"github.com/HatiCode/rnncast/cmd/predictor/metrics"
	"github.com/HatiCode/rnncast/pkg/forecast"
	"github.com/HatiCode/rnncast/pkg/httpx"
)

// MaxBodyBytes caps /predict request bodies.
const MaxBodyBytes = 1 << 20

const (
	msgInvalidJSON  = "invalid JSON body"
	msgNotNumbers   = "recent_production must be an array of numbers"
	msgBodyTooLarge = "request body too large"
	msgInternal     = "internal server error"
)

// Predictor is the forecast pipeline served by the router.
type Predictor interface {
	Predict(ctx context.Context, w forecast.Window) (forecast.Prediction, error)
	Info() forecast.Info
	CacheEnabled() bool
}

// PredictResponse is the /predict success body.
type PredictResponse struct {
	NextMonthPrediction float64 `json:"next_month_prediction"`
}

// New returns the complete predictor handler: routes wrapped with recovery,
// request logging and CORS. /metrics serves gatherer, which should be the
// registry m was created with. healthCheck may be nil.
func New(p Predictor, m *metrics.Metrics, gatherer prometheus.Gatherer, healthCheck func(ctx context.Context) error, logger *slog.Logger) http.Handler {
	mux := SetupRoutes(p, m, gatherer, healthCheck, logger)
	return httpx.Chain(mux,
		httpx.RecoveryMiddleware(logger),
		httpx.LoggingMiddleware(logger),
		httpx.CORSMiddleware(
			[]string{http.MethodPost, http.MethodGet, http.MethodOptions},
			[]string{"Content-Type"},
		),
	)
}

// SetupRoutes configures HTTP endpoints for the predictor.
func SetupRoutes(p Predictor, m *metrics.Metrics, gatherer prometheus.Gatherer, healthCheck func(ctx context.Context) error, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	if healthCheck != nil {
		mux.Handle("/healthz", httpx.HealthHandlerWithCheck(healthCheck))
	} else {
		mux.Handle("/healthz", httpx.HealthHandler())
	}

	mux.HandleFunc("/predict", handlePredict(p, m, logger))
	mux.HandleFunc("/model", handleModel(p))

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

// handlePredict returns a handler for POST /predict.
func handlePredict(p Predictor, m *metrics.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
		case http.MethodOptions:
			w.Header().Set("Allow", "POST, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		default:
			w.Header().Set("Allow", "POST, OPTIONS")
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		values, status, msg := decodeValues(w, r)
		if status != http.StatusOK {
			m.RecordOutcome(metrics.OutcomeInvalid)
			httpx.WriteErrorMessage(w, status, msg)
			return
		}

		window, err := forecast.NewWindow(values)
		if err != nil {
			writeValidationError(w, m, err)
			return
		}

		start := time.Now()
		pred, err := p.Predict(r.Context(), window)
		m.RecordPredict(time.Since(start).Seconds())

		if err != nil {
			var verr *forecast.ValidationError
			if errors.As(err, &verr) {
				writeValidationError(w, m, verr)
				return
			}

			logger.Error("prediction failed", "error", err)
			m.RecordOutcome(metrics.OutcomeError)
			m.RecordError("predict", "pipeline")
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, msgInternal)
			return
		}

		if p.CacheEnabled() {
			m.RecordCache(pred.Cached)
		}
		m.RecordOutcome(metrics.OutcomeOK)
		m.SetLastPrediction(pred.Value)

		logger.Debug("prediction served",
			"model", pred.Model,
			"value", pred.Value,
			"cached", pred.Cached,
		)

		if err := httpx.WriteJSON(w, http.StatusOK, PredictResponse{NextMonthPrediction: pred.Value}); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}

func writeValidationError(w http.ResponseWriter, m *metrics.Metrics, err error) {
	m.RecordOutcome(metrics.OutcomeInvalid)
	var verr *forecast.ValidationError
	if errors.As(err, &verr) {
		httpx.WriteErrorMessage(w, http.StatusBadRequest, verr.Message)
		return
	}
	httpx.WriteErrorMessage(w, http.StatusBadRequest, err.Error())
}

// decodeValues extracts recent_production from the request body. A missing
// or null field yields an empty list, which is then rejected for its length.
// When the key repeats, the last occurrence wins. A non-200 status carries
// the client error message.
func decodeValues(w http.ResponseWriter, r *http.Request) ([]float64, int, string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, msgBodyTooLarge
		}
		return nil, http.StatusBadRequest, msgInvalidJSON
	}

	if !gjson.ValidBytes(body) {
		return nil, http.StatusBadRequest, msgInvalidJSON
	}

	field := lastField(body, "recent_production")
	if !field.Exists() || field.Type == gjson.Null {
		return nil, http.StatusOK, ""
	}
	if !field.IsArray() {
		return nil, http.StatusBadRequest, msgNotNumbers
	}

	elems := field.Array()
	values := make([]float64, 0, len(elems))
	for _, e := range elems {
		if e.Type != gjson.Number {
			return nil, http.StatusBadRequest, msgNotNumbers
		}
		values = append(values, e.Float())
	}
	return values, http.StatusOK, ""
}

// handleModel returns a handler for GET /model.
func handleModel(p Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if err := httpx.WriteJSON(w, http.StatusOK, p.Info()); err != nil {
			slog.Error("failed to write JSON response", "error", err)
		}
	}
}

// lastField returns the last top-level member named key, or a non-existent
// result when body is not an object or has no such member.
func lastField(body []byte, key string) gjson.Result {
	var field gjson.Result
	gjson.ParseBytes(body).ForEach(func(k, v gjson.Result) bool {
		if k.Type == gjson.String && k.Str == key {
			field = v
		}
		return true
	})
	return field
}
