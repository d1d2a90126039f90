package fermprofile

import (
	"github.com/TYPOWERS/fermprofile/internal/adapters/opcua"
	"github.com/TYPOWERS/fermprofile/internal/analysis"
	"github.com/TYPOWERS/fermprofile/internal/app/config"
	"github.com/TYPOWERS/fermprofile/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls parallelism and sink failure handling.
	Policy = ports.Policy
	// Thresholds tunes detection, consolidation and truncation.
	Thresholds = analysis.Thresholds
	// SourceConfig selects a CSV run folder or an OPC UA history server.
	SourceConfig = config.SourceConfig
	// OPCUAConfig configures the OPC UA history source.
	OPCUAConfig = opcua.Config
	// StoreConfig configures profile persistence.
	StoreConfig = config.StoreConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// HTTPConfig configures the analysis API.
	HTTPConfig = config.HTTPConfig
	// LogConfig configures the logrus logger.
	LogConfig = config.LogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}

// DefaultThresholds returns the stock analysis thresholds.
func DefaultThresholds() Thresholds {
	return analysis.DefaultThresholds()
}
