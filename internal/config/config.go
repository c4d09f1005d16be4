// SPDX-License-Identifier: Apache-2.0

// Package config loads tool configuration from tabledep.yaml (or .yml)
// with environment overrides. All values have working defaults; a
// missing config file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config file names looked up in the scan root (and cwd).
const (
	FileName    = "tabledep.yaml"
	FileNameAlt = "tabledep.yml"
)

// envPrefix scopes environment overrides, e.g. TABLEDEP_TABLE,
// TABLEDEP_SERVER__PORT (double underscore nests).
const envPrefix = "TABLEDEP_"

// Config holds tool-level settings. Scan-request fields act as defaults
// for the CLI/HTTP/MCP surfaces; flags always win.
type Config struct {
	Table         string   `koanf:"table"`
	PKColumn      string   `koanf:"pk_column"`
	MinConfidence string   `koanf:"min_confidence"`
	Strict        bool     `koanf:"strict"`
	SkipDirs      []string `koanf:"skip_dirs"`

	Server ServerConfig `koanf:"server"`
}

// ServerConfig holds the HTTP front-end settings.
type ServerConfig struct {
	Port int `koanf:"port"`
}

func defaults() map[string]any {
	return map[string]any{
		"pk_column":      "id",
		"min_confidence": "LOW",
		"server.port":    8642,
	}
}

// Load reads configuration with precedence: defaults < config file <
// environment. dir is where the config file is looked for; empty means
// the current directory.
func Load(dir string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findFile(dir); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

func findFile(dir string) string {
	if dir == "" {
		dir = "."
	}
	for _, name := range []string{FileName, FileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
