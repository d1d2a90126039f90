package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TYPOWERS/fermprofile/internal/adapters/opcua"
	"github.com/TYPOWERS/fermprofile/internal/adapters/setpointcsv"
	"github.com/TYPOWERS/fermprofile/internal/analysis"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

type Config struct {
	ProcessType string              `yaml:"process_type"`
	Analysis    analysis.Thresholds `yaml:"analysis"`
	Policy      ports.Policy        `yaml:"policy"`
	Source      SourceConfig        `yaml:"source"`
	Store       StoreConfig         `yaml:"store"`
	Metrics     MetricsConfig       `yaml:"metrics"`
	HTTP        HTTPConfig          `yaml:"http"`
	Log         LogConfig           `yaml:"log"`
}

// SourceConfig selects where runs are read from: a CSV run folder (data_dir)
// or an OPC UA history server (opcua.endpoint). At most one may be set.
type SourceConfig struct {
	setpointcsv.Config `yaml:",inline"`
	OPCUA              opcua.Config `yaml:"opcua"`
}

// StoreConfig selects where finished profiles are persisted. An empty driver
// disables persistence.
type StoreConfig struct {
	Driver     string `yaml:"driver"` // "postgres", "sqlite"
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	CacheSize int    `yaml:"cache_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text", "json"
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default is the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Validate re-checks a configuration built in code.
func (c *Config) Validate() error {
	c.applyDefaults()
	return c.validate()
}

func (c *Config) applyDefaults() {
	c.Analysis.ApplyDefaults()
	if c.Policy.MaxParallel <= 0 {
		c.Policy.MaxParallel = 4
	}
	if c.Policy.OnSinkError == "" {
		c.Policy.OnSinkError = ports.OnSinkErrorFail
	}
	if c.Store.Table == "" {
		c.Store.Table = "setpoint_profiles"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.CacheSize == 0 {
		c.HTTP.CacheSize = 128
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	c.Source.Config.ApplyDefaults()
	if c.Source.OPCUA.Enabled() {
		c.Source.OPCUA.ApplyDefaults()
	}
}

func (c *Config) validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}
	if err := c.Source.Config.Validate(); err != nil {
		return fmt.Errorf("source config: %w", err)
	}
	if c.Source.OPCUA.Enabled() {
		if c.Source.DataDir != "" {
			return fmt.Errorf("source config: data_dir and opcua.endpoint are mutually exclusive")
		}
		if err := c.Source.OPCUA.Validate(); err != nil {
			return fmt.Errorf("source.opcua config: %w", err)
		}
	}
	switch c.Policy.OnSinkError {
	case ports.OnSinkErrorFail, ports.OnSinkErrorLog:
	default:
		return fmt.Errorf("policy.on_sink_error must be %q or %q, got %q", ports.OnSinkErrorFail, ports.OnSinkErrorLog, c.Policy.OnSinkError)
	}
	switch c.Store.Driver {
	case "":
	case "postgres", "sqlite":
		if c.Store.ConnString == "" {
			return fmt.Errorf("store.conn_string is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	if c.HTTP.CacheSize < 0 {
		return fmt.Errorf("http.cache_size must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
