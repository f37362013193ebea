// internal/config/load.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML or TOML (by .toml extension) config file.
// Unknown keys are rejected.
// Load does not validate; callers run Validate then Normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return parseTOML(raw)
	}
	return parseYAML(raw)
}

func parseYAML(raw []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: yaml: %w", err)
	}
	return &cfg, nil
}

func parseTOML(raw []byte) (*Config, error) {
	var cfg Config

	md, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: toml: unknown key %q", undecoded[0].String())
	}
	return &cfg, nil
}
