// Package config loads and validates the watchwire configuration.
//
// DESIGN: Configuration comes from a YAML file with ${VAR:-default}
// environment expansion applied before parsing. Validation is explicit
// and runs on every load so a bad file fails at startup, not mid-run.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/watchwire/watchwire/internal/monitoring"
)

// Config is the root configuration for watchwire.
type Config struct {
	Server     ServerConfig     `yaml:"server"`     // Inbound listener settings
	Producer   ProducerConfig   `yaml:"producer"`   // Background observation source
	Client     ClientConfig     `yaml:"client"`     // Fan-out peer list and deadlines
	Store      StoreConfig      `yaml:"store"`      // Optional collect-run archive
	Monitoring MonitoringConfig `yaml:"monitoring"` // Logging and telemetry
}

// ServerConfig contains the inbound listener settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`          // Bind interface
	Port         int           `yaml:"port"`          // Listen port (0 picks ephemeral)
	WriteTimeout time.Duration `yaml:"write_timeout"` // Per-session write deadline
}

// ProducerConfig controls the background observation source.
type ProducerConfig struct {
	Interval      time.Duration `yaml:"interval"`       // Simulated source tick
	MaxRetries    int           `yaml:"max_retries"`    // Source errors retried before fatal
	RetryInterval time.Duration `yaml:"retry_interval"` // Pause between retries
}

// PeerConfig is one server address the client fans out to.
type PeerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ClientConfig contains the fan-out settings.
type ClientConfig struct {
	Peers          []PeerConfig  `yaml:"peers"`           // Ordered peer list, duplicates allowed
	DialTimeout    time.Duration `yaml:"dial_timeout"`    // Connection establishment bound
	AttemptTimeout time.Duration `yaml:"attempt_timeout"` // Whole-attempt deadline (0 = none)
}

// StoreConfig contains the optional collect-run archive settings.
type StoreConfig struct {
	Path string `yaml:"path"` // SQLite file path; empty disables archiving
}

// MonitoringConfig groups logging, telemetry and alert thresholds.
type MonitoringConfig struct {
	Logging   monitoring.LoggerConfig    `yaml:"logging"`
	Telemetry monitoring.TelemetryConfig `yaml:"telemetry"`
	Alerts    monitoring.AlertConfig     `yaml:"alerts"`
}

// expandEnvWithDefaults expands environment variables with support for
// default values. Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 0-65535)", c.Server.Port)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must not be negative")
	}

	if c.Producer.Interval < 0 {
		return fmt.Errorf("producer.interval must not be negative")
	}
	if c.Producer.MaxRetries < 0 {
		return fmt.Errorf("producer.max_retries must not be negative")
	}
	if c.Producer.MaxRetries > 0 && c.Producer.RetryInterval <= 0 {
		return fmt.Errorf("producer.retry_interval is required when max_retries is set")
	}

	for i, p := range c.Client.Peers {
		if p.Host == "" {
			return fmt.Errorf("client.peers[%d].host is required", i)
		}
		if p.Port < 1 || p.Port > 65535 {
			return fmt.Errorf("invalid client.peers[%d].port: %d (must be 1-65535)", i, p.Port)
		}
	}
	if c.Client.DialTimeout < 0 {
		return fmt.Errorf("client.dial_timeout must not be negative")
	}
	if c.Client.AttemptTimeout < 0 {
		return fmt.Errorf("client.attempt_timeout must not be negative")
	}

	if c.Monitoring.Telemetry.Enabled && c.Monitoring.Telemetry.LogPath == "" {
		return fmt.Errorf("monitoring.telemetry.log_path is required when telemetry is enabled")
	}

	return nil
}
