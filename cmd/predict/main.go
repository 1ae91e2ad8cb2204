// Command predict requests a next-month forecast from a running predictor.
//
// Usage:
//
//	predict -url=http://localhost:8080 110.5 115.2 112.3 118.0 120.5 125.3 \
//	  123.1 128.6 130.7 129.4 131.0 132.5
//	predict -values=110.5,115.2,...
//
// The prediction is printed to stdout. Error responses are printed to stderr
// and the command exits with status 1.
//
// Environment variables:
//
//	PREDICTOR_URL - Base URL of the predictor (default: http://localhost:8080)
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/HatiCode/rnncast/pkg/httpx"
	"github.com/HatiCode/rnncast/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		baseURL     string
		valuesFlag  string
		timeout     time.Duration
		showVersion bool
		tlsCfg      tls.Config
	)
	fs.StringVar(&baseURL, "url", getEnv("PREDICTOR_URL", "http://localhost:8080"), "Predictor base URL")
	fs.StringVar(&valuesFlag, "values", "", "Comma-separated production values (alternative to positional arguments)")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&tlsCfg.Enabled, "tls-enabled", false, "Use a custom TLS configuration")
	fs.StringVar(&tlsCfg.CertFile, "tls-cert-file", "", "Client certificate file for mTLS")
	fs.StringVar(&tlsCfg.KeyFile, "tls-key-file", "", "Client private key file for mTLS")
	fs.StringVar(&tlsCfg.CAFile, "tls-ca-file", "", "CA certificate used to verify the predictor")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}

	values, err := parseValues(valuesFlag, fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "predict: %v\n", err)
		return 2
	}

	client, err := httpx.NewClient(tlsCfg, timeout)
	if err != nil {
		fmt.Fprintf(stderr, "predict: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	prediction, err := requestPrediction(ctx, client, baseURL, values)
	if err != nil {
		fmt.Fprintf(stderr, "predict: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, strconv.FormatFloat(prediction, 'f', -1, 64))
	return 0
}

// parseValues reads values from the -values flag or, when it is empty, from
// positional arguments. The count is left for the server to check.
func parseValues(flagValue string, args []string) ([]float64, error) {
	var fields []string
	if flagValue != "" {
		if len(args) > 0 {
			return nil, errors.New("use either -values or positional arguments, not both")
		}
		fields = strings.Split(flagValue, ",")
	} else {
		fields = args
	}

	if len(fields) == 0 {
		return nil, errors.New("no values given")
	}

	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", f, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// requestPrediction posts values to {baseURL}/predict and returns the
// predicted value. A non-200 response is returned as an error carrying the
// server's error message.
func requestPrediction(ctx context.Context, client *http.Client, baseURL string, values []float64) (float64, error) {
	body, err := json.Marshal(map[string][]float64{"recent_production": values})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + "/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg := gjson.GetBytes(respBody, "error"); msg.Exists() {
			return 0, fmt.Errorf("server returned %d: %s", resp.StatusCode, msg.String())
		}
		return 0, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	pred := gjson.GetBytes(respBody, "next_month_prediction")
	if pred.Type != gjson.Number {
		return 0, fmt.Errorf("response missing next_month_prediction: %s", strings.TrimSpace(string(respBody)))
	}
	return pred.Float(), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
