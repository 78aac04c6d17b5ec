package scheduler

import (
	"time"
)

// Config controls scheduler intervals.
type Config struct {
	TickInterval      time.Duration
	HeartbeatInterval time.Duration
	PurgeInterval     time.Duration
	FlushInterval     time.Duration
	JobTimeout        time.Duration
}

func DefaultConfig() Config {
	return Config{
		TickInterval:      time.Minute,
		HeartbeatInterval: 30 * time.Minute,
		PurgeInterval:     30 * time.Minute,
		FlushInterval:     time.Minute,
		JobTimeout:        30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = defaults.TickInterval
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if c.PurgeInterval <= 0 {
		c.PurgeInterval = defaults.PurgeInterval
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = defaults.FlushInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func ProvideConfig() Config {
	return DefaultConfig()
}
