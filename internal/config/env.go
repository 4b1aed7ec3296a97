package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables that override file values.
const (
	EnvMinerHost    = "MINERBRIDGE_MINER_HOST"
	EnvMinerPort    = "MINERBRIDGE_MINER_PORT"
	EnvMinerTimeout = "MINERBRIDGE_MINER_TIMEOUT"
	EnvHTTPListen   = "MINERBRIDGE_HTTP_LISTEN"
	EnvLogLevel     = "MINERBRIDGE_LOG_LEVEL"
	EnvStartupProbe = "MINERBRIDGE_STARTUP_PROBE"
)

// ApplyEnv overlays environment overrides onto cfg. Unparseable values are
// ignored and reported as warnings.
func ApplyEnv(cfg *Config) []Warning {
	var warnings []Warning
	warn := func(key, value string) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("ignoring %s=%q: invalid value", key, value)})
	}

	cfg.Miner.Host = env(EnvMinerHost, cfg.Miner.Host)
	cfg.HTTP.Listen = env(EnvHTTPListen, cfg.HTTP.Listen)
	cfg.Log.Level = strings.ToLower(env(EnvLogLevel, cfg.Log.Level))

	if port, ok := envInt(EnvMinerPort); ok {
		cfg.Miner.Port = port
	} else if raw := os.Getenv(EnvMinerPort); strings.TrimSpace(raw) != "" {
		warn(EnvMinerPort, raw)
	}

	if timeout, ok := envDuration(EnvMinerTimeout); ok {
		cfg.Miner.TimeoutMS = int(timeout / time.Millisecond)
	} else if raw := os.Getenv(EnvMinerTimeout); strings.TrimSpace(raw) != "" {
		warn(EnvMinerTimeout, raw)
	}

	if probe, ok := envBool(EnvStartupProbe); ok {
		cfg.StartupProbe = probe
	} else if raw := os.Getenv(EnvStartupProbe); strings.TrimSpace(raw) != "" {
		warn(EnvStartupProbe, raw)
	}

	return warnings
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func envBool(key string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// envDuration accepts Go durations ("2s") or bare milliseconds ("2000").
func envDuration(key string) (time.Duration, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, true
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
