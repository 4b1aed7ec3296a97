package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlConfig struct {
	Miner        *yamlMiner `yaml:"miner"`
	HTTP         *yamlHTTP  `yaml:"http"`
	StartupProbe *bool      `yaml:"startup_probe"`
	Log          *yamlLog   `yaml:"log"`

	LegacyHost         *string `yaml:"host"`
	LegacyPort         *int    `yaml:"port"`
	LegacyMinerTimeout *int    `yaml:"minerTimeout"`
}

type yamlMiner struct {
	Host      *string `yaml:"host"`
	Port      *int    `yaml:"port"`
	TimeoutMS *int    `yaml:"timeout_ms"`
}

type yamlHTTP struct {
	Listen              *string        `yaml:"listen"`
	ReadHeaderTimeoutMS *int           `yaml:"read_header_timeout_ms"`
	ShutdownTimeoutMS   *int           `yaml:"shutdown_timeout_ms"`
	RateLimit           *yamlRateLimit `yaml:"rate_limit"`
}

type yamlRateLimit struct {
	Enabled *bool    `yaml:"enabled"`
	RPS     *float64 `yaml:"rps"`
	Burst   *int     `yaml:"burst"`
}

type yamlLog struct {
	Level *string `yaml:"level"`
}

var legacyKeys = map[string]string{
	"host":         "miner.host",
	"port":         "miner.port",
	"minerTimeout": "miner.timeout_ms",
}

// Parse reads YAML configuration content on top of base. Unknown keys are
// rejected. Top-level host/port/minerTimeout are accepted with a warning.
//
// Parse does not validate; Load validates after environment overrides.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		return base, nil, nil
	}

	decoder := yaml.NewDecoder(strings.NewReader(content))
	decoder.KnownFields(true)

	var payload yamlConfig
	if err := decoder.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil, nil
		}
		return Config{}, nil, err
	}
	if err := ensureSingleDocument(decoder); err != nil {
		return Config{}, nil, err
	}

	warnings, err := legacyKeyWarnings(content)
	if err != nil {
		return Config{}, nil, err
	}

	cfg := base
	payload.applyTo(&cfg)
	return cfg, warnings, nil
}

func (payload yamlConfig) applyTo(cfg *Config) {
	if payload.LegacyHost != nil {
		cfg.Miner.Host = strings.TrimSpace(*payload.LegacyHost)
	}
	if payload.LegacyPort != nil {
		cfg.Miner.Port = *payload.LegacyPort
	}
	if payload.LegacyMinerTimeout != nil {
		cfg.Miner.TimeoutMS = *payload.LegacyMinerTimeout
	}

	if payload.Miner != nil {
		if payload.Miner.Host != nil {
			cfg.Miner.Host = strings.TrimSpace(*payload.Miner.Host)
		}
		if payload.Miner.Port != nil {
			cfg.Miner.Port = *payload.Miner.Port
		}
		if payload.Miner.TimeoutMS != nil {
			cfg.Miner.TimeoutMS = *payload.Miner.TimeoutMS
		}
	}

	if payload.HTTP != nil {
		if payload.HTTP.Listen != nil {
			cfg.HTTP.Listen = strings.TrimSpace(*payload.HTTP.Listen)
		}
		if payload.HTTP.ReadHeaderTimeoutMS != nil {
			cfg.HTTP.ReadHeaderTimeoutMS = *payload.HTTP.ReadHeaderTimeoutMS
		}
		if payload.HTTP.ShutdownTimeoutMS != nil {
			cfg.HTTP.ShutdownTimeoutMS = *payload.HTTP.ShutdownTimeoutMS
		}
		if rl := payload.HTTP.RateLimit; rl != nil {
			if rl.Enabled != nil {
				cfg.HTTP.RateLimit.Enabled = *rl.Enabled
			}
			if rl.RPS != nil {
				cfg.HTTP.RateLimit.RPS = *rl.RPS
			}
			if rl.Burst != nil {
				cfg.HTTP.RateLimit.Burst = *rl.Burst
			}
		}
	}

	if payload.StartupProbe != nil {
		cfg.StartupProbe = *payload.StartupProbe
	}

	if payload.Log != nil && payload.Log.Level != nil {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(*payload.Log.Level))
	}
}

// legacyKeyWarnings reports each top-level legacy key with its source line.
func legacyKeyWarnings(content string) ([]Warning, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil
	}

	var warnings []Warning
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		replacement, ok := legacyKeys[key.Value]
		if !ok {
			continue
		}
		warnings = append(warnings, Warning{
			Line:    key.Line,
			Message: fmt.Sprintf("top-level %q is deprecated; use %s", key.Value, replacement),
		})
	}
	return warnings, nil
}

func ensureSingleDocument(decoder *yaml.Decoder) error {
	var extra yaml.Node
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple YAML documents are not allowed")
	}
	return err
}
