package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Discovery struct {
		IntervalSeconds         int `yaml:"interval_seconds" json:"interval_seconds"`
		RunTimeoutSeconds       int `yaml:"run_timeout_seconds" json:"run_timeout_seconds"`
		DefaultRateLimitSeconds int `yaml:"default_rate_limit_seconds" json:"default_rate_limit_seconds"`
		MaxMarkupBytes          int `yaml:"max_markup_bytes" json:"max_markup_bytes"`
		MaxConcurrentSources    int `yaml:"max_concurrent_sources" json:"max_concurrent_sources"`
	} `yaml:"discovery" json:"discovery"`

	Availability struct {
		IntervalSeconds   int      `yaml:"interval_seconds" json:"interval_seconds"`
		OffsetSeconds     int      `yaml:"offset_seconds" json:"offset_seconds"`
		RunTimeoutSeconds int      `yaml:"run_timeout_seconds" json:"run_timeout_seconds"`
		SoldMarkers       []string `yaml:"sold_markers" json:"sold_markers"`
	} `yaml:"availability" json:"availability"`

	Oracle struct {
		Model               string  `yaml:"model" json:"model"`
		MaxTokens           int     `yaml:"max_tokens" json:"max_tokens"`
		Temperature         float64 `yaml:"temperature" json:"temperature"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`
		KeyringAccount      string  `yaml:"keyring_account" json:"keyring_account"`
	} `yaml:"oracle" json:"oracle"`

	Email struct {
		Enabled        bool     `yaml:"enabled" json:"enabled"`
		SMTPHost       string   `yaml:"smtp_host" json:"smtp_host"`
		SMTPPort       int      `yaml:"smtp_port" json:"smtp_port"`
		Username       string   `yaml:"username" json:"username"`
		From           string   `yaml:"from" json:"from"`
		To             []string `yaml:"to" json:"to"`
		KeyringAccount string   `yaml:"keyring_account" json:"keyring_account"`
	} `yaml:"email" json:"email"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) DiscoveryInterval() time.Duration {
	return time.Duration(c.Discovery.IntervalSeconds) * time.Second
}

func (c Config) DiscoveryRunTimeout() time.Duration {
	if c.Discovery.RunTimeoutSeconds <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Discovery.RunTimeoutSeconds) * time.Second
}

func (c Config) AvailabilityInterval() time.Duration {
	return time.Duration(c.Availability.IntervalSeconds) * time.Second
}

func (c Config) AvailabilityOffset() time.Duration {
	return time.Duration(c.Availability.OffsetSeconds) * time.Second
}

func (c Config) AvailabilityRunTimeout() time.Duration {
	if c.Availability.RunTimeoutSeconds <= 0 {
		return 20 * time.Minute
	}
	return time.Duration(c.Availability.RunTimeoutSeconds) * time.Second
}

func (c Config) DefaultRateLimit() time.Duration {
	if c.Discovery.DefaultRateLimitSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Discovery.DefaultRateLimitSeconds) * time.Second
}
