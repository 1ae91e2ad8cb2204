package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/HatiCode/rnncast/pkg/tls"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "environment variable set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "from-env",
			want:         "from-env",
		},
		{
			name:         "environment variable not set",
			key:          "NONEXISTENT_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		want         int
	}{
		{"valid int", "3", 0, 3},
		{"invalid int", "three", 7, 7},
		{"not set", "", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_INT", tt.envValue)
			}
			if got := getEnvInt("TEST_INT", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "5m", time.Minute, 5 * time.Minute},
		{"invalid duration", "not-a-duration", 30 * time.Second, 30 * time.Second},
		{"not set", "", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_DURATION", tt.envValue)
			}
			if got := getEnvDuration("TEST_DURATION", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	if got := getEnvFloat("TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("getEnvFloat() = %v, want 0.25", got)
	}
	t.Setenv("TEST_FLOAT", "quarter")
	if got := getEnvFloat("TEST_FLOAT", 1); got != 1 {
		t.Errorf("getEnvFloat() = %v, want default 1", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "1")
	if !getEnvBool("TEST_BOOL", false) {
		t.Error("getEnvBool(\"1\") = false, want true")
	}
	t.Setenv("TEST_BOOL", "no")
	if getEnvBool("TEST_BOOL", true) {
		t.Error("getEnvBool(\"no\") = true, want false")
	}
}

func TestConfig_Defaults(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{"cmd"}

	cfg := ParseFlags()

	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Listen)
	}
	if cfg.ModelBackend != BackendNetwork {
		t.Errorf("ModelBackend = %q, want %q", cfg.ModelBackend, BackendNetwork)
	}
	if cfg.ModelPath != "models/frozen_dessert_rnn_model.json" {
		t.Errorf("ModelPath = %q", cfg.ModelPath)
	}
	if cfg.ScalerPath != "models/frozen_dessert_rnn_scaler.json" {
		t.Errorf("ScalerPath = %q", cfg.ScalerPath)
	}
	if cfg.Cache != CacheNone {
		t.Errorf("Cache = %q, want none", cfg.Cache)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log settings = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestConfig_CustomValues(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	t.Setenv("REDIS_ADDR", "redis:6379")

	os.Args = []string{
		"cmd",
		"-listen=:9090",
		"-model-backend=tfserving",
		"-tfserving-url=http://tfserving:8501",
		"-cache=redis",
		"-cache-ttl=10m",
		"-log-format=json",
	}

	cfg := ParseFlags()

	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q, want :9090", cfg.Listen)
	}
	if cfg.ModelBackend != BackendTFServing || cfg.TFServingURL != "http://tfserving:8501" {
		t.Errorf("backend = %q url = %q", cfg.ModelBackend, cfg.TFServingURL)
	}
	if cfg.Cache != CacheRedis || cfg.CacheTTL != 10*time.Minute {
		t.Errorf("cache = %q ttl = %v", cfg.Cache, cfg.CacheTTL)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("RedisAddr = %q, want value from environment", cfg.RedisAddr)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			ModelBackend: BackendNetwork,
			ModelPath:    "model.json",
			ScalerPath:   "scaler.json",
			Cache:        CacheNone,
			RedisAddr:    "localhost:6379",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.ModelBackend = "onnx" }},
		{"missing model path", func(c *Config) { c.ModelPath = "" }},
		{"missing scaler path", func(c *Config) { c.ScalerPath = "" }},
		{"tfserving without url", func(c *Config) { c.ModelBackend = BackendTFServing }},
		{"unknown cache", func(c *Config) { c.Cache = "memcached" }},
		{"redis without addr", func(c *Config) { c.Cache = CacheRedis; c.RedisAddr = ""; c.CacheTTL = time.Minute }},
		{"memory without ttl", func(c *Config) { c.Cache = CacheMemory }},
		{"tls without files", func(c *Config) { c.TLS = tls.Config{Enabled: true} }},
		{"baseline damping out of range", func(c *Config) { c.ModelBackend = BackendBaseline; c.BaselineDamp = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on valid config = %v", err)
	}
}
