// Package config loads the tool's layered configuration: built-in defaults,
// then an optional YAML file, then HYDROPREP_* environment variables. CLI
// flags override all of it, handled at the flag layer.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Model is the resolved tool configuration.
type Model struct {
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// GISBin and SimBin are the external engine binaries steps invoke.
	GISBin string `koanf:"gis_bin"`
	SimBin string `koanf:"sim_bin"`

	// NoWait makes a step invocation fail fast with a busy error instead of
	// blocking when another invocation holds the project lock.
	NoWait bool `koanf:"no_wait"`
}

func defaults() map[string]any {
	return map[string]any{
		"log_level":  "info",
		"log_format": "text",
		"gis_bin":    "grassops",
		"sim_bin":    "rhessys",
		"no_wait":    false,
	}
}

const envPrefix = "HYDROPREP_"

// Load resolves the configuration. filePath may be empty; when set, the
// file must exist and parse.
func Load(filePath string) (*Model, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default configuration: %w", err)
	}

	if filePath != "" {
		if _, err := os.Stat(filePath); err != nil {
			return nil, fmt.Errorf("config file %q is not readable: %w", filePath, err)
		}
		if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %q: %w", filePath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment configuration: %w", err)
	}

	var m Model
	if err := k.Unmarshal("", &m); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	switch m.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be 'debug', 'info', 'warn', or 'error'", m.LogLevel)
	}
	switch m.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", m.LogFormat)
	}
	return nil
}
