package config

import (
	"fmt"
	"strings"
	"time"
)

const slowMinerTimeout = time.Minute

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Miner.Host) == "" {
		return nil, fmt.Errorf("miner.host must not be empty")
	}
	if cfg.Miner.Port < 1 || cfg.Miner.Port > 65535 {
		return nil, fmt.Errorf("miner.port must be between 1 and 65535, got %d", cfg.Miner.Port)
	}
	if cfg.Miner.TimeoutMS <= 0 {
		return nil, fmt.Errorf("miner.timeout_ms must be > 0")
	}
	if cfg.Miner.Timeout() > slowMinerTimeout {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("miner.timeout_ms=%d exceeds %s; HTTP callers will wait that long on a hung daemon", cfg.Miner.TimeoutMS, slowMinerTimeout),
		})
	}

	if strings.TrimSpace(cfg.HTTP.Listen) == "" {
		return nil, fmt.Errorf("http.listen must not be empty")
	}
	if cfg.HTTP.ReadHeaderTimeoutMS <= 0 {
		return nil, fmt.Errorf("http.read_header_timeout_ms must be > 0")
	}
	if cfg.HTTP.ShutdownTimeoutMS <= 0 {
		return nil, fmt.Errorf("http.shutdown_timeout_ms must be > 0")
	}
	if cfg.HTTP.RateLimit.Enabled {
		if cfg.HTTP.RateLimit.RPS <= 0 {
			return nil, fmt.Errorf("http.rate_limit.rps must be > 0 when rate limiting is enabled")
		}
		if cfg.HTTP.RateLimit.Burst <= 0 {
			return nil, fmt.Errorf("http.rate_limit.burst must be > 0 when rate limiting is enabled")
		}
	}

	if _, ok := logLevels[cfg.Log.Level]; !ok {
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	return warnings, nil
}
