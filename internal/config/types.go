// Package config resolves, parses, validates, and defaults minerbridge configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by minerbridge.
type Config struct {
	Miner        MinerConfig
	HTTP         HTTPConfig
	StartupProbe bool
	Log          LogConfig
}

// MinerConfig locates the mining daemon's JSON API.
type MinerConfig struct {
	Host      string
	Port      int
	TimeoutMS int
}

// Timeout bounds connect plus reply wait for one command.
func (m MinerConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMS) * time.Millisecond
}

// HTTPConfig controls the bridge listener.
type HTTPConfig struct {
	Listen              string
	ReadHeaderTimeoutMS int
	ShutdownTimeoutMS   int
	RateLimit           RateLimitConfig
}

// ReadHeaderTimeout returns the header read bound as a duration.
func (h HTTPConfig) ReadHeaderTimeout() time.Duration {
	return time.Duration(h.ReadHeaderTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns the graceful shutdown bound as a duration.
func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownTimeoutMS) * time.Millisecond
}

// RateLimitConfig is the per-client token bucket.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
