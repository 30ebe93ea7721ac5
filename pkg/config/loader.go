package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrEmptyFile    = errors.New("configuration file is empty")
	ErrNoRules      = errors.New("configuration contains no merge rules")
)

// Load reads and parses a merge-rule configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses a YAML configuration document. Unknown keys are
// rejected so typos surface at load time instead of silently dropping
// a pattern.
func Parse(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if len(cfg.MergeRules) == 0 {
		return nil, ErrNoRules
	}

	for i, rc := range cfg.MergeRules {
		if rc.NewName == "" {
			return nil, fmt.Errorf("merge rule %d: newName is required", i+1)
		}
		if rc.CacheSize != nil && *rc.CacheSize < 0 {
			return nil, fmt.Errorf("merge rule %d: cacheSize must not be negative", i+1)
		}
	}

	return &cfg, nil
}
