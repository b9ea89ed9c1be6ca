package stockfighter

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything the client needs to reach the API.
type Config struct {
	// APIKey is sent as the X-Starfighter-Authorization header.
	APIKey string `yaml:"api_key"`
	// BaseURL is the REST API root, without a trailing slash.
	BaseURL string `yaml:"base_url"`
	// WebSocketURL is the streaming API root, without a trailing slash.
	WebSocketURL string `yaml:"websocket_url"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls the client's logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// DefaultConfig returns a config pointed at the public API.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "https://api.stockfighter.io/ob/api",
		WebSocketURL: "wss://api.stockfighter.io/ob/api/ws",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from a YAML file, applies environment
// variable overrides, and validates the result. An empty path skips the file
// and uses defaults plus environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config from %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKFIGHTER_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("STOCKFIGHTER_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("STOCKFIGHTER_WEBSOCKET_URL"); v != "" {
		cfg.WebSocketURL = v
	}
	if v := os.Getenv("STOCKFIGHTER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks a config for the mistakes that otherwise surface as
// confusing transport failures later.
func Validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("base_url %q must start with http:// or https://", cfg.BaseURL)
	}
	if cfg.WebSocketURL == "" {
		return errors.New("websocket_url must not be empty")
	}
	if !strings.HasPrefix(cfg.WebSocketURL, "ws://") && !strings.HasPrefix(cfg.WebSocketURL, "wss://") {
		return fmt.Errorf("websocket_url %q must start with ws:// or wss://", cfg.WebSocketURL)
	}
	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}
	return nil
}
