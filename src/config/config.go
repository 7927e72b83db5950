package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"crypto-indices/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// APIKeyEnv holds the upstream market-data API key.
	APIKeyEnv = "COINGECKO_API_KEY"
	// PortEnv overrides the HTTP port (serverless hosts inject it).
	PortEnv = "PORT"

	defaultBaseURL    = "https://api.coingecko.com/api/v3"
	defaultProBaseURL = "https://pro-api.coingecko.com/api/v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, a local .env file and the
// process environment (in increasing order of precedence).
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from raw YAML bytes.
func Parse(data []byte) (*Config, error) {
	// 1. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 2. Secrets and overrides
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	config.applyEnv()
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		c.DataSource.APIKey = key
	}
	if port := os.Getenv(PortEnv); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "crypto-indices"
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "none"
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 30
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 15
	}
	if c.Network.ConcurrentRequests == 0 {
		c.Network.ConcurrentRequests = 10
	}
	if c.Network.Burst == 0 {
		c.Network.Burst = c.Network.ConcurrentRequests
	}
	if c.DataSource.Name == "" {
		c.DataSource.Name = "coingecko"
	}
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = defaultBaseURL
		if c.DataSource.Pro {
			c.DataSource.BaseURL = defaultProBaseURL
		}
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 120
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "crypto-indices:"
	}
	if c.Indices.CalendarMIC == "" {
		c.Indices.CalendarMIC = "xnys"
	}
	if c.Indices.Timezone == "" {
		c.Indices.Timezone = "UTC"
	}
	if c.Scheduler.Cron == "" {
		c.Scheduler.Cron = "@every 2m"
	}
	if len(c.Scheduler.Periods) == 0 {
		c.Scheduler.Periods = []string{"daily", "month", "year", "all"}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "none":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative")
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}
	if c.Network.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}

	// Validate Cache configuration
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty for redis cache")
		}
	default:
		return fmt.Errorf("unsupported cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}

	// Validate Scheduler configuration
	for i, p := range c.Scheduler.Periods {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("scheduler period %d cannot be empty", i)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// HasAPIKey reports whether the upstream credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.DataSource.APIKey != ""
}
