package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

// ErrMissingConfig is returned when a required setting is absent.
var ErrMissingConfig = errors.New("missing required configuration")

// Config holds the proxy and client settings. Keys mirror the environment
// variable names, lower-cased.
type Config struct {
	Port string

	APIKey     string
	ResourceID string

	UpstreamBaseURL   string
	UpstreamTimeout   time.Duration
	UpstreamRateLimit float64
	UpstreamRateBurst int

	FiltersSampleLimit int

	LogLevel string
	LogFile  string

	// ClientBaseURL is where the dashboard and export commands reach the proxy.
	ClientBaseURL string
}

var defaults = map[string]interface{}{
	"port":                 "5000",
	"upstream_base_url":    "https://api.data.gov.in/resource",
	"upstream_timeout":     "15s",
	"upstream_rate_limit":  0,
	"upstream_rate_burst":  1,
	"filters_sample_limit": 2000,
	"log_level":            "info",
	"mgnrega_api_url":      "http://localhost:5000",
}

// LoadEnv reads a .env file from the working directory if one exists.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Load builds the configuration from defaults overlaid with the process
// environment. It does not validate required keys; see Validate.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	err := k.Load(env.Provider("", ".", func(s string) string {
		// Empty values leave the default in place.
		if os.Getenv(s) == "" {
			return ""
		}
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{
		Port:               k.String("port"),
		APIKey:             strings.TrimSpace(k.String("data_gov_api_key")),
		ResourceID:         strings.TrimSpace(k.String("data_gov_resource_id")),
		UpstreamBaseURL:    strings.TrimRight(k.String("upstream_base_url"), "/"),
		UpstreamTimeout:    k.Duration("upstream_timeout"),
		UpstreamRateLimit:  k.Float64("upstream_rate_limit"),
		UpstreamRateBurst:  k.Int("upstream_rate_burst"),
		FiltersSampleLimit: k.Int("filters_sample_limit"),
		LogLevel:           k.String("log_level"),
		LogFile:            k.String("log_file"),
		ClientBaseURL:      strings.TrimRight(k.String("mgnrega_api_url"), "/"),
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 15 * time.Second
	}
	if cfg.FiltersSampleLimit <= 0 {
		cfg.FiltersSampleLimit = 2000
	}
	if cfg.UpstreamRateBurst <= 0 {
		cfg.UpstreamRateBurst = 1
	}
	return cfg, nil
}

// Validate reports every missing setting the proxy needs before it may serve.
func (c *Config) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "DATA_GOV_API_KEY")
	}
	if c.ResourceID == "" {
		missing = append(missing, "DATA_GOV_RESOURCE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s must be set", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}
