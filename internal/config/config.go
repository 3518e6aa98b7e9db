package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Gateway  GatewayConfig
	Batch    BatchConfig
	S3       S3Config
	Strategy StrategyConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GatewayConfig holds settings for the model backend provider.
type GatewayConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	BaseURL     string `mapstructure:"base_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`

	// Circuit breaker around the provider. Disabled when BreakerMinRequests is 0.
	BreakerMinRequests  uint32  `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64 `mapstructure:"breaker_failure_ratio"`
	BreakerOpenSecs     int     `mapstructure:"breaker_open_secs"`
}

// Timeout returns the HTTP client timeout, defaulting to 120s.
func (g *GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(g.TimeoutSecs) * time.Second
}

// BreakerEnabled reports whether gateway calls go through a circuit breaker.
func (g *GatewayConfig) BreakerEnabled() bool {
	return g.BreakerMinRequests > 0
}

// BreakerOpenTimeout returns how long an open breaker rejects calls, defaulting to 30s.
func (g *GatewayConfig) BreakerOpenTimeout() time.Duration {
	if g.BreakerOpenSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(g.BreakerOpenSecs) * time.Second
}

// BatchConfig holds batch orchestrator settings.
type BatchConfig struct {
	Concurrency int  `mapstructure:"concurrency"`
	Extract     bool `mapstructure:"extract"`
}

// S3Config holds AWS S3 settings for loading batch documents from s3:// locations.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// StrategyConfig points at an optional YAML file of per-type schema extensions.
type StrategyConfig struct {
	File string `mapstructure:"file"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the DOCPARSE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCPARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Gateway defaults
	v.SetDefault("gateway.provider", "openai")
	v.SetDefault("gateway.api_key", "")
	v.SetDefault("gateway.model", "")
	v.SetDefault("gateway.base_url", "")
	v.SetDefault("gateway.timeout_secs", 120)
	v.SetDefault("gateway.breaker_min_requests", 0)
	v.SetDefault("gateway.breaker_failure_ratio", 0.5)
	v.SetDefault("gateway.breaker_open_secs", 30)

	// Batch defaults
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.extract", true)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")

	v.SetDefault("strategy.file", "")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "DOCPARSE_SERVER_PORT",
		"server.read_timeout":           "DOCPARSE_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "DOCPARSE_SERVER_WRITE_TIMEOUT",
		"server.environment":            "DOCPARSE_SERVER_ENVIRONMENT",
		"log.level":                     "DOCPARSE_LOG_LEVEL",
		"log.format":                    "DOCPARSE_LOG_FORMAT",
		"gateway.provider":              "DOCPARSE_GATEWAY_PROVIDER",
		"gateway.api_key":               "DOCPARSE_GATEWAY_API_KEY",
		"gateway.model":                 "DOCPARSE_GATEWAY_MODEL",
		"gateway.base_url":              "DOCPARSE_GATEWAY_BASE_URL",
		"gateway.timeout_secs":          "DOCPARSE_GATEWAY_TIMEOUT_SECS",
		"gateway.breaker_min_requests":  "DOCPARSE_GATEWAY_BREAKER_MIN_REQUESTS",
		"gateway.breaker_failure_ratio": "DOCPARSE_GATEWAY_BREAKER_FAILURE_RATIO",
		"gateway.breaker_open_secs":     "DOCPARSE_GATEWAY_BREAKER_OPEN_SECS",
		"batch.concurrency":             "DOCPARSE_BATCH_CONCURRENCY",
		"batch.extract":                 "DOCPARSE_BATCH_EXTRACT",
		"s3.region":                     "DOCPARSE_S3_REGION",
		"s3.endpoint":                   "DOCPARSE_S3_ENDPOINT",
		"s3.access_key":                 "DOCPARSE_S3_ACCESS_KEY",
		"s3.secret_key":                 "DOCPARSE_S3_SECRET_KEY",
		"strategy.file":                 "DOCPARSE_STRATEGY_FILE",
		"cors.allowed_origins":          "DOCPARSE_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if DOCPARSE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCPARSE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Gateway = GatewayConfig{
		Provider:    strings.ToLower(strings.TrimSpace(v.GetString("gateway.provider"))),
		APIKey:      v.GetString("gateway.api_key"),
		Model:       v.GetString("gateway.model"),
		BaseURL:     v.GetString("gateway.base_url"),
		TimeoutSecs: v.GetInt("gateway.timeout_secs"),

		BreakerMinRequests:  v.GetUint32("gateway.breaker_min_requests"),
		BreakerFailureRatio: v.GetFloat64("gateway.breaker_failure_ratio"),
		BreakerOpenSecs:     v.GetInt("gateway.breaker_open_secs"),
	}

	concurrency := v.GetInt("batch.concurrency")
	if concurrency <= 0 {
		concurrency = 1
	}
	cfg.Batch = BatchConfig{
		Concurrency: concurrency,
		Extract:     v.GetBool("batch.extract"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Strategy = StrategyConfig{
		File: v.GetString("strategy.file"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	return cfg, nil
}
