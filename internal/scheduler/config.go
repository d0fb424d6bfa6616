package scheduler

import (
	"time"
)

// Config controls the scheduler tick and per-job knobs.
type Config struct {
	RunInterval    time.Duration
	SweepBatchSize int
	ExportInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval:    time.Minute,
		SweepBatchSize: 25,
		ExportInterval: 7 * 24 * time.Hour,
	}
}

func ProvideConfig() Config {
	return DefaultConfig()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.SweepBatchSize <= 0 {
		c.SweepBatchSize = defaults.SweepBatchSize
	}
	if c.ExportInterval <= 0 {
		c.ExportInterval = defaults.ExportInterval
	}
	return c
}
