package setpointcsv

import (
	"errors"
	"time"
)

// Config points the source at one exported run folder.
type Config struct {
	DataDir        string   `yaml:"data_dir"`
	StepGapSeconds float64  `yaml:"step_gap_seconds"`
	Parameters     []string `yaml:"parameters"`
}

func (c *Config) ApplyDefaults() {
	if c.StepGapSeconds == 0 {
		c.StepGapSeconds = 69
	}
}

func (c *Config) Validate() error {
	if c.StepGapSeconds < 0 {
		return errors.New("step_gap_seconds must not be negative")
	}
	return nil
}

func (c Config) stepGap() time.Duration {
	return time.Duration(c.StepGapSeconds * float64(time.Second))
}
