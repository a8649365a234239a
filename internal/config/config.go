package config

import (
	"fmt"
	"os"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/hostnames"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDevHost          = "localhost:8000"
	DefaultMaxAttempts      = 5
	DefaultBaseDelayMillis  = 1000
	DefaultCapDelayMillis   = 30000
	DefaultPingPeriodSecond = 54
)

// Reconnect holds the bounded exponential backoff applied after an abnormal close.
type Reconnect struct {
	MaxAttempts     int `yaml:"maxAttempts"`
	BaseDelayMillis int `yaml:"baseDelayMillis"`
	CapDelayMillis  int `yaml:"capDelayMillis"`
}

// Config holds the interview client configuration, loaded from a YAML file.
type Config struct {
	// Production selects ServerHost over DevHost.
	Production bool   `yaml:"production"`
	ServerHost string `yaml:"serverHost"`
	DevHost    string `yaml:"devHost"`
	// Secure selects wss over ws.
	Secure bool `yaml:"secure"`

	PingPeriodSeconds int       `yaml:"pingPeriodSeconds"`
	Reconnect         Reconnect `yaml:"reconnect"`
}

// Default returns a development configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// BaseDelay returns the first backoff step as a time.Duration.
func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.Reconnect.BaseDelayMillis) * time.Millisecond
}

// CapDelay returns the maximum backoff delay as a time.Duration.
func (c *Config) CapDelay() time.Duration {
	return time.Duration(c.Reconnect.CapDelayMillis) * time.Millisecond
}

// PingPeriod returns the keep-alive ping interval as a time.Duration.
func (c *Config) PingPeriod() time.Duration {
	return time.Duration(c.PingPeriodSeconds) * time.Second
}

// Host returns the host the client connects to in the current environment.
func (c *Config) Host() string {
	if c.Production {
		return c.ServerHost
	}
	return c.DevHost
}

func (c *Config) applyDefaults() {
	if c.DevHost == "" {
		c.DevHost = DefaultDevHost
	}
	if c.PingPeriodSeconds == 0 {
		c.PingPeriodSeconds = DefaultPingPeriodSecond
	}
	if c.Reconnect.MaxAttempts == 0 {
		c.Reconnect.MaxAttempts = DefaultMaxAttempts
	}
	if c.Reconnect.BaseDelayMillis == 0 {
		c.Reconnect.BaseDelayMillis = DefaultBaseDelayMillis
	}
	if c.Reconnect.CapDelayMillis == 0 {
		c.Reconnect.CapDelayMillis = DefaultCapDelayMillis
	}
}

// validate checks the loaded configuration and normalizes the hosts in place.
func (c *Config) validate() error {
	if c.Production && c.ServerHost == "" {
		return fmt.Errorf("serverHost must be set in production")
	}
	if c.ServerHost != "" {
		host, err := hostnames.NormalizeHostPort(c.ServerHost)
		if err != nil {
			return fmt.Errorf("serverHost: %w", err)
		}
		c.ServerHost = host
	}
	host, err := hostnames.NormalizeHostPort(c.DevHost)
	if err != nil {
		return fmt.Errorf("devHost: %w", err)
	}
	c.DevHost = host

	if c.PingPeriodSeconds < 0 {
		return fmt.Errorf("pingPeriodSeconds cannot be negative")
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.maxAttempts cannot be negative")
	}
	if c.Reconnect.BaseDelayMillis < 0 || c.Reconnect.CapDelayMillis < 0 {
		return fmt.Errorf("reconnect delays cannot be negative")
	}
	if c.Reconnect.CapDelayMillis < c.Reconnect.BaseDelayMillis {
		return fmt.Errorf("reconnect.capDelayMillis (%d) must not be below reconnect.baseDelayMillis (%d)",
			c.Reconnect.CapDelayMillis, c.Reconnect.BaseDelayMillis)
	}
	return nil
}

// LoadConfig reads the client configuration from the given file path,
// unmarshals it, applies defaults and performs validation.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml from %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
