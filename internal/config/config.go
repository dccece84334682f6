// Package config provides configuration management for Notefold.
// Settings come from three layers, each overriding the previous: built-in
// defaults, an optional YAML config file, and environment variables with
// the NOTEFOLD_ prefix.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Notefold backend.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Limits   LimitsConfig   `yaml:"limits"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 5055)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	// Engine selects the storage backend: sqlite or postgres (default: sqlite)
	Engine string `yaml:"engine"`

	// DataPath is the directory holding the sqlite database (default: ./data)
	DataPath string `yaml:"data_path"`

	// PostgresDSN is the connection string used when Engine is postgres
	PostgresDSN string `yaml:"postgres_dsn"`
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	Mode     string `yaml:"mode"`      // development or production (default: development)
	APIToken string `yaml:"api_token"` // bearer token required in production mode
}

// LimitsConfig contains request rate limiting settings.
type LimitsConfig struct {
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`   // sustained requests per second (default: 25)
	RateLimitBurst int     `yaml:"rate_limit_burst"` // burst allowance (default: 50)
}

// WatchConfig names the files whose changes trigger a credential reload and
// client cache flush.
type WatchConfig struct {
	// EnvFile is the dotenv file to watch (default: .env). Empty disables
	// watching.
	EnvFile string `yaml:"env_file"`
}

// LoadConfig loads configuration from defaults, the optional YAML file named
// by NOTEFOLD_CONFIG, and NOTEFOLD_-prefixed environment variables, in that
// order of precedence.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("NOTEFOLD_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that the loaders cannot.
func (c *Config) Validate() error {
	switch c.Storage.Engine {
	case "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("config: postgres engine requires a DSN")
		}
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}

	if c.Security.Mode != "development" && c.Security.Mode != "production" {
		return fmt.Errorf("config: unknown security mode %q", c.Security.Mode)
	}
	if c.Security.Mode == "production" && c.Security.APIToken == "" {
		return errors.New("config: production mode requires an API token")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 5055,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data",
		},
		Security: SecurityConfig{
			Mode: "development",
		},
		Limits: LimitsConfig{
			RateLimitRPS:   25,
			RateLimitBurst: 50,
		},
		Watch: WatchConfig{
			EnvFile: ".env",
		},
	}
}

// loadFile overlays the YAML file at path onto the config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays NOTEFOLD_-prefixed environment variables onto the config.
func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("NOTEFOLD_PORT", c.Server.Port)
	c.Server.Host = getEnv("NOTEFOLD_HOST", c.Server.Host)

	c.Storage.Engine = getEnv("NOTEFOLD_STORAGE_ENGINE", c.Storage.Engine)
	c.Storage.DataPath = getEnv("NOTEFOLD_DATA_PATH", c.Storage.DataPath)
	c.Storage.PostgresDSN = getEnv("NOTEFOLD_POSTGRES_DSN", c.Storage.PostgresDSN)

	c.Security.Mode = getEnv("NOTEFOLD_SECURITY_MODE", c.Security.Mode)
	c.Security.APIToken = getEnv("NOTEFOLD_API_TOKEN", c.Security.APIToken)

	c.Limits.RateLimitRPS = getEnvFloat("NOTEFOLD_RATE_LIMIT_RPS", c.Limits.RateLimitRPS)
	c.Limits.RateLimitBurst = getEnvInt("NOTEFOLD_RATE_LIMIT_BURST", c.Limits.RateLimitBurst)

	c.Watch.EnvFile = getEnv("NOTEFOLD_ENV_FILE", c.Watch.EnvFile)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value, including when the variable cannot be parsed.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value, including when the variable cannot be parsed.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
