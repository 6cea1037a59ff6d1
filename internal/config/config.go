// Package config loads the YAML configuration file that parameterizes
// every component of the pipeline: Binance endpoints, queue capacities,
// logging, and the optional NATS/HTTP outputs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface for an mdc instance.
type Config struct {
	// Binance source endpoints and instrument selection.
	BinanceRestEndpoint string `yaml:"binance_rest_endpoint"`
	BinanceWssEndpoint  string `yaml:"binance_wss_endpoint"`
	Instrument          string `yaml:"instrument"`

	// Core pipeline knobs.
	MaxDepth               uint64 `yaml:"max_depth"`
	Connections            uint64 `yaml:"connections"`
	ReconnectTimeoutMillis uint64 `yaml:"reconnect_timeout"`
	SnapshotIntervalMillis uint64 `yaml:"snapshot_update_interval"`
	QueueCapacity          int    `yaml:"queue_capacity"`

	Logger LoggerConfig `yaml:"logger"`
	Nats   NatsConfig   `yaml:"nats"`
	HTTP   HTTPConfig   `yaml:"http"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// NatsConfig targets an optional JetStream sink for emitted book states.
// Empty URIs disables the sink entirely.
type NatsConfig struct {
	URIs    []string `yaml:"uris"`
	Stream  string   `yaml:"stream"`
	Subject string   `yaml:"subject"`
}

func (n NatsConfig) Enabled() bool {
	return len(n.URIs) > 0 && n.Subject != ""
}

// HTTPConfig controls the optional read-only query API. An empty Addr
// disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func (h HTTPConfig) Enabled() bool {
	return h.Addr != ""
}

func (c Config) ReconnectTimeout() time.Duration {
	return time.Duration(c.ReconnectTimeoutMillis) * time.Millisecond
}

func (c Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalMillis) * time.Millisecond
}

// Default queue capacity when QueueCapacity is left at its zero value.
const DefaultQueueCapacity = 100

func (c Config) EffectiveQueueCapacity() int {
	if c.QueueCapacity <= 0 {
		return DefaultQueueCapacity
	}
	return c.QueueCapacity
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if c.Instrument == "" {
		return fmt.Errorf("instrument must not be empty")
	}
	if c.BinanceRestEndpoint == "" {
		return fmt.Errorf("binance_rest_endpoint must not be empty")
	}
	if c.BinanceWssEndpoint == "" {
		return fmt.Errorf("binance_wss_endpoint must not be empty")
	}
	if c.Connections == 0 {
		return fmt.Errorf("connections must be at least 1")
	}
	if c.MaxDepth == 0 {
		return fmt.Errorf("max_depth must be at least 1")
	}
	return nil
}
