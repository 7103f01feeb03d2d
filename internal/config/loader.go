package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// maxIncludeDepth bounds include recursion so a cycle cannot hang startup.
const maxIncludeDepth = 8

// DefaultPath returns the user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "scape", "config.yaml"), nil
}

// Load reads and resolves the config at path, following includes. A missing
// file yields the built-in defaults.
func Load(path string) (Config, []string, error) {
	raw, err := loadRaw(path, 0)
	if err != nil {
		if os.IsNotExist(err) {
			cfg, warnings := Effective(RawConfig{})
			return cfg, warnings, nil
		}
		return Config{}, nil, err
	}
	cfg, warnings := Effective(raw)
	return cfg, warnings, nil
}

// LoadDefault loads the config from the default location.
func LoadDefault() (Config, []string, error) {
	path, err := DefaultPath()
	if err != nil {
		return Config{}, nil, err
	}
	return Load(path)
}

func loadRaw(path string, depth int) (RawConfig, error) {
	if depth > maxIncludeDepth {
		return RawConfig{}, fmt.Errorf("include depth exceeded at %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RawConfig{}, err
	}

	var raw RawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return RawConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}

	// Includes merge in listed order, the including file wins.
	merged := RawConfig{}
	for _, inc := range raw.Include {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		entries, err := expandInclude(inc)
		if err != nil {
			return RawConfig{}, err
		}
		for _, entry := range entries {
			included, err := loadRaw(entry, depth+1)
			if err != nil {
				return RawConfig{}, fmt.Errorf("include %s: %w", entry, err)
			}
			merged = merged.merge(included)
		}
	}

	return merged.merge(raw), nil
}

// expandInclude resolves an include entry to files: a directory includes its
// yaml files in name order.
func expandInclude(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
