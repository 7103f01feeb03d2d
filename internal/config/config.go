// Package config loads and validates the compositor configuration. Files
// are parsed into a raw form where every field is optional, merged across
// includes, and then resolved into an effective Config with defaults filled
// in. Invalid entries are skipped with a warning; a broken config never
// keeps the compositor from starting.
package config

import (
	"fmt"
	"log/slog"
)

// Zone is a named placement region inside a space.
type Zone struct {
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Default bool
}

// Space describes one workspace: the outputs assigned to it and its zones.
type Space struct {
	Outputs []string
	Zones   []Zone
}

// Binding maps a key combination to an action. Action is one of "quit",
// "spawn", "focus-or-spawn", "move-window", "close-window", "tab".
type Binding struct {
	Action  string
	Command string
	AppID   string
	Window  string
	Zone    string
	Space   string
}

// Config is the effective, validated configuration.
type Config struct {
	LogLevel slog.Level
	LogFile  string

	DefaultSpace string
	Spaces       map[string]Space
	Bindings     map[string]Binding
	Startup      []string
}

var knownActions = map[string]bool{
	"quit":           true,
	"spawn":          true,
	"focus-or-spawn": true,
	"move-window":    true,
	"close-window":   true,
	"tab":            true,
}

// Effective resolves a merged raw config. Problems that can be skipped are
// returned as warnings; only structurally hopeless input yields an error.
func Effective(raw RawConfig) (Config, []string) {
	var warnings []string

	cfg := Config{
		LogLevel: slog.LevelInfo,
		Spaces:   make(map[string]Space),
		Bindings: make(map[string]Binding),
	}

	if raw.Logging != nil {
		if raw.Logging.Level != nil {
			level, err := parseLevel(*raw.Logging.Level)
			if err != nil {
				warnings = append(warnings, err.Error())
			} else {
				cfg.LogLevel = level
			}
		}
		if raw.Logging.File != nil {
			cfg.LogFile = *raw.Logging.File
		}
	}

	for name, rawSpace := range raw.Spaces {
		sp, spaceWarnings := effectiveSpace(name, rawSpace)
		warnings = append(warnings, spaceWarnings...)
		cfg.Spaces[name] = sp
	}

	if len(cfg.Spaces) == 0 {
		cfg.Spaces["main"] = Space{}
	}

	if raw.DefaultSpace != nil {
		if _, ok := cfg.Spaces[*raw.DefaultSpace]; ok {
			cfg.DefaultSpace = *raw.DefaultSpace
		} else {
			warnings = append(warnings,
				fmt.Sprintf("default_space %q is not a configured space, ignoring", *raw.DefaultSpace))
		}
	}
	if cfg.DefaultSpace == "" {
		for name := range cfg.Spaces {
			if cfg.DefaultSpace == "" || name < cfg.DefaultSpace {
				cfg.DefaultSpace = name
			}
		}
	}

	for combo, rawBinding := range raw.Bindings {
		b, err := effectiveBinding(combo, rawBinding)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		cfg.Bindings[combo] = b
	}

	cfg.Startup = append(cfg.Startup, raw.Startup...)

	return cfg, warnings
}

func effectiveSpace(name string, raw RawSpace) (Space, []string) {
	var warnings []string
	sp := Space{Outputs: append([]string(nil), raw.Outputs...)}

	seen := make(map[string]bool)
	defaults := 0
	for i, rz := range raw.Zones {
		if rz.Name == nil || *rz.Name == "" {
			warnings = append(warnings,
				fmt.Sprintf("space %q: zone %d has no name, skipping", name, i))
			continue
		}
		if seen[*rz.Name] {
			warnings = append(warnings,
				fmt.Sprintf("space %q: duplicate zone %q, keeping the first", name, *rz.Name))
			continue
		}
		z := Zone{Name: *rz.Name}
		if rz.X != nil {
			z.X = *rz.X
		}
		if rz.Y != nil {
			z.Y = *rz.Y
		}
		if rz.Width != nil {
			z.Width = *rz.Width
		}
		if rz.Height != nil {
			z.Height = *rz.Height
		}
		if z.Width <= 0 || z.Height <= 0 {
			warnings = append(warnings,
				fmt.Sprintf("space %q: zone %q has no area, skipping", name, z.Name))
			continue
		}
		if rz.Default != nil && *rz.Default {
			defaults++
			if defaults > 1 {
				warnings = append(warnings,
					fmt.Sprintf("space %q: zone %q also marked default, keeping the first", name, z.Name))
			} else {
				z.Default = true
			}
		}
		seen[z.Name] = true
		sp.Zones = append(sp.Zones, z)
	}

	return sp, warnings
}

func effectiveBinding(combo string, raw RawBinding) (Binding, error) {
	if raw.Action == nil {
		return Binding{}, fmt.Errorf("binding %q has no action, skipping", combo)
	}
	action := *raw.Action
	if !knownActions[action] {
		return Binding{}, fmt.Errorf("binding %q: unknown action %q, skipping", combo, action)
	}

	b := Binding{Action: action}
	if raw.Command != nil {
		b.Command = *raw.Command
	}
	if raw.AppID != nil {
		b.AppID = *raw.AppID
	}
	if raw.Window != nil {
		b.Window = *raw.Window
	}
	if raw.Zone != nil {
		b.Zone = *raw.Zone
	}
	if raw.Space != nil {
		b.Space = *raw.Space
	}

	switch action {
	case "spawn":
		if b.Command == "" {
			return Binding{}, fmt.Errorf("binding %q: spawn without command, skipping", combo)
		}
	case "focus-or-spawn":
		if b.Command == "" || b.AppID == "" {
			return Binding{}, fmt.Errorf("binding %q: focus-or-spawn needs command and app_id, skipping", combo)
		}
	case "move-window":
		if b.Zone == "" && b.Space == "" {
			return Binding{}, fmt.Errorf("binding %q: move-window needs a zone or space, skipping", combo)
		}
	}

	return b, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q, using info", s)
	}
}
