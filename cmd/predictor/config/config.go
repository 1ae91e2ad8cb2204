// Package config provides configuration parsing for the predictor.
//
// Every setting is available as a command-line flag with an environment
// variable fallback; flags take precedence over the environment, which takes
// precedence over defaults.
//
// Example usage:
//
//	cfg := config.ParseFlags()
//	if err := cfg.Validate(); err != nil {
//		// exit
//	}
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/HatiCode/rnncast/pkg/tls"
)

// Model backends.
const (
	BackendNetwork   = "network"
	BackendTFServing = "tfserving"
	BackendBaseline  = "baseline"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all predictor configuration.
type Config struct {
	Listen    string
	LogFormat string
	LogLevel  string
	TLS       tls.Config

	ModelBackend   string
	ModelPath      string
	ScalerPath     string
	TFServingURL   string
	TFServingModel string
	BaselineDamp   float64

	Cache         string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ParseFlags parses command-line flags and environment variables into a Config.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")

	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.BoolVar(&cfg.TLS.Enabled, "tls-enabled", getEnvBool("TLS_ENABLED", false), "Enable TLS for HTTP server")
	flag.StringVar(&cfg.TLS.CertFile, "tls-cert-file", getEnv("TLS_CERT_FILE", ""), "TLS certificate file")
	flag.StringVar(&cfg.TLS.KeyFile, "tls-key-file", getEnv("TLS_KEY_FILE", ""), "TLS private key file")
	flag.StringVar(&cfg.TLS.CAFile, "tls-ca-file", getEnv("TLS_CA_FILE", ""), "TLS CA certificate file for client verification")

	flag.StringVar(&cfg.ModelBackend, "model-backend", getEnv("MODEL_BACKEND", BackendNetwork), "Model backend: network, tfserving, or baseline")
	flag.StringVar(&cfg.ModelPath, "model-path", getEnv("MODEL_PATH", "models/frozen_dessert_rnn_model.json"), "Exported network artifact (model-backend=network)")
	flag.StringVar(&cfg.ScalerPath, "scaler-path", getEnv("SCALER_PATH", "models/frozen_dessert_rnn_scaler.json"), "Exported scaler artifact")
	flag.StringVar(&cfg.TFServingURL, "tfserving-url", getEnv("TFSERVING_URL", ""), "TensorFlow Serving REST base URL (model-backend=tfserving)")
	flag.StringVar(&cfg.TFServingModel, "tfserving-model", getEnv("TFSERVING_MODEL", "frozen_dessert_rnn"), "Model name served by TensorFlow Serving")
	flag.Float64Var(&cfg.BaselineDamp, "baseline-damping", getEnvFloat("BASELINE_DAMPING", 0.5), "Trend damping in [0, 1] (model-backend=baseline)")

	flag.StringVar(&cfg.Cache, "cache", getEnv("CACHE", CacheNone), "Prediction cache: none, memory, or redis")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", getEnvDuration("CACHE_TTL", time.Hour), "Prediction cache TTL")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")

	flag.Parse()

	return cfg
}

// Validate checks option combinations.
func (c *Config) Validate() error {
	switch c.ModelBackend {
	case BackendNetwork:
		if c.ModelPath == "" {
			return fmt.Errorf("model-path is required when model-backend=%s", BackendNetwork)
		}
	case BackendTFServing:
		if c.TFServingURL == "" {
			return fmt.Errorf("tfserving-url is required when model-backend=%s", BackendTFServing)
		}
		if c.TFServingModel == "" {
			return fmt.Errorf("tfserving-model is required when model-backend=%s", BackendTFServing)
		}
	case BackendBaseline:
		if c.BaselineDamp < 0 || c.BaselineDamp > 1 {
			return fmt.Errorf("baseline-damping must be in [0, 1]")
		}
	default:
		return fmt.Errorf("invalid model-backend %q (must be network, tfserving, or baseline)", c.ModelBackend)
	}

	if c.ScalerPath == "" {
		return fmt.Errorf("scaler-path is required")
	}

	switch c.Cache {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis-addr is required when cache=redis")
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("redis-db cannot be negative")
		}
	default:
		return fmt.Errorf("invalid cache %q (must be none, memory, or redis)", c.Cache)
	}

	if c.Cache != CacheNone && c.CacheTTL <= 0 {
		return fmt.Errorf("cache-ttl must be > 0")
	}

	return c.TLS.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
