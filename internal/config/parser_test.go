package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValidConfig(t *testing.T) {
	input := `
# miner endpoint
miner:
  host: 10.0.0.5
  port: 4029
  timeout_ms: 1500
http:
  listen: 0.0.0.0:8080
  rate_limit:
    enabled: false
startup_probe: false
log:
  level: DEBUG
`

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "10.0.0.5", cfg.Miner.Host)
	require.Equal(t, 4029, cfg.Miner.Port)
	require.Equal(t, 1500, cfg.Miner.TimeoutMS)
	require.Equal(t, "0.0.0.0:8080", cfg.HTTP.Listen)
	require.False(t, cfg.HTTP.RateLimit.Enabled)
	require.Equal(t, Default().HTTP.RateLimit.RPS, cfg.HTTP.RateLimit.RPS)
	require.Equal(t, Default().HTTP.ShutdownTimeoutMS, cfg.HTTP.ShutdownTimeoutMS)
	require.False(t, cfg.StartupProbe)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestParseEmptyContentKeepsBase(t *testing.T) {
	for _, input := range []string{"", "   \n", "# only a comment\n"} {
		cfg, warnings, err := Parse(input, Default())
		require.NoError(t, err)
		require.Empty(t, warnings)
		require.Equal(t, Default(), cfg)
	}
}

func TestParseLegacyTopLevelKeys(t *testing.T) {
	input := "host: miner.lan\nport: 4030\nminerTimeout: 2500\n"

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Equal(t, "miner.lan", cfg.Miner.Host)
	require.Equal(t, 4030, cfg.Miner.Port)
	require.Equal(t, 2500, cfg.Miner.TimeoutMS)

	require.Len(t, warnings, 3)
	require.Equal(t, 1, warnings[0].Line)
	require.Contains(t, warnings[0].Message, "miner.host")
	require.Equal(t, 3, warnings[2].Line)
	require.Contains(t, warnings[2].Message, "miner.timeout_ms")
}

func TestParseNestedKeysWinOverLegacy(t *testing.T) {
	input := "port: 1111\nminer:\n  port: 2222\n"

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Equal(t, 2222, cfg.Miner.Port)
	require.Len(t, warnings, 1)
}

func TestParseUnknownKeyFails(t *testing.T) {
	_, _, err := Parse("miner:\n  host: x\n  bogus: 1\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
	require.Contains(t, err.Error(), "bogus")
}

func TestParseTypeErrorIncludesLine(t *testing.T) {
	_, _, err := Parse("\n\nminer:\n  port: not-a-number\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 4")
}

func TestParseRejectsMultipleDocuments(t *testing.T) {
	_, _, err := Parse("miner:\n  port: 1\n---\nminer:\n  port: 2\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple YAML documents")
}
