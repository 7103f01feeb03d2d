package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }
func boolp(b bool) *bool    { return &b }

func TestEffectiveDefaults(t *testing.T) {
	cfg, warnings := Effective(RawConfig{})
	if len(warnings) != 0 {
		t.Fatalf("warnings on empty config: %v", warnings)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("default log level = %v", cfg.LogLevel)
	}
	if _, ok := cfg.Spaces["main"]; !ok {
		t.Fatalf("no fallback space: %v", cfg.Spaces)
	}
	if cfg.DefaultSpace != "main" {
		t.Fatalf("default space = %q", cfg.DefaultSpace)
	}
}

func TestEffectiveSkipsInvalidZones(t *testing.T) {
	raw := RawConfig{
		Spaces: map[string]RawSpace{
			"main": {
				Zones: []RawZone{
					{Name: strp("left"), Width: intp(960), Height: intp(1080)},
					{Name: strp("left"), Width: intp(500), Height: intp(500)},
					{Name: strp("empty")},
					{Width: intp(100), Height: intp(100)},
				},
			},
		},
	}
	cfg, warnings := Effective(raw)
	sp := cfg.Spaces["main"]
	if len(sp.Zones) != 1 {
		t.Fatalf("zones = %+v, want just the first valid one", sp.Zones)
	}
	if sp.Zones[0].Width != 960 {
		t.Fatalf("duplicate zone replaced the original: %+v", sp.Zones[0])
	}
	if len(warnings) != 3 {
		t.Fatalf("warnings = %v, want 3", warnings)
	}
}

func TestEffectiveSingleDefaultZone(t *testing.T) {
	raw := RawConfig{
		Spaces: map[string]RawSpace{
			"main": {
				Zones: []RawZone{
					{Name: strp("a"), Width: intp(100), Height: intp(100), Default: boolp(true)},
					{Name: strp("b"), Width: intp(100), Height: intp(100), Default: boolp(true)},
				},
			},
		},
	}
	cfg, warnings := Effective(raw)
	zones := cfg.Spaces["main"].Zones
	if !zones[0].Default || zones[1].Default {
		t.Fatalf("default flags = %v/%v, want first only", zones[0].Default, zones[1].Default)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestEffectiveBindingValidation(t *testing.T) {
	tests := []struct {
		name    string
		binding RawBinding
		valid   bool
	}{
		{"spawn with command", RawBinding{Action: strp("spawn"), Command: strp("foot")}, true},
		{"spawn without command", RawBinding{Action: strp("spawn")}, false},
		{"unknown action", RawBinding{Action: strp("explode")}, false},
		{"no action", RawBinding{Command: strp("foot")}, false},
		{"focus-or-spawn complete", RawBinding{Action: strp("focus-or-spawn"), Command: strp("firefox"), AppID: strp("org.mozilla.firefox")}, true},
		{"focus-or-spawn missing app", RawBinding{Action: strp("focus-or-spawn"), Command: strp("firefox")}, false},
		{"move-window to zone", RawBinding{Action: strp("move-window"), Zone: strp("left")}, true},
		{"move-window aimless", RawBinding{Action: strp("move-window")}, false},
		{"tab", RawBinding{Action: strp("tab")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := RawConfig{Bindings: map[string]RawBinding{"super+x": tt.binding}}
			cfg, warnings := Effective(raw)
			_, kept := cfg.Bindings["super+x"]
			if kept != tt.valid {
				t.Fatalf("kept=%v want %v (warnings: %v)", kept, tt.valid, warnings)
			}
		})
	}
}

func TestEffectiveUnknownDefaultSpace(t *testing.T) {
	raw := RawConfig{
		DefaultSpace: strp("nowhere"),
		Spaces:       map[string]RawSpace{"main": {}},
	}
	cfg, warnings := Effective(raw)
	if cfg.DefaultSpace != "main" {
		t.Fatalf("default space = %q", cfg.DefaultSpace)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "nowhere") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.Spaces["main"]; !ok {
		t.Fatalf("defaults not applied")
	}
}

func TestLoadWithInclude(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	main := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(base, []byte(`
logging:
  level: debug
startup:
  - swaybg
bindings:
  super+t:
    action: spawn
    command: foot
`), 0o644); err != nil {
		t.Fatalf("write base: %v", err)
	}
	if err := os.WriteFile(main, []byte(`
include: base.yaml
logging:
  level: warn
spaces:
  main:
    outputs: [DP-1]
`), 0o644); err != nil {
		t.Fatalf("write main: %v", err)
	}

	cfg, warnings, err := Load(main)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings: %v", warnings)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Fatalf("including file did not win: level = %v", cfg.LogLevel)
	}
	if _, ok := cfg.Bindings["super+t"]; !ok {
		t.Fatalf("included binding lost")
	}
	if got := cfg.Spaces["main"].Outputs; len(got) != 1 || got[0] != "DP-1" {
		t.Fatalf("outputs = %v", got)
	}
	if len(cfg.Startup) != 1 || cfg.Startup[0] != "swaybg" {
		t.Fatalf("startup = %v", cfg.Startup)
	}
}

func TestLoadParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("spaces: ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := Load(path); err == nil {
		t.Fatalf("parse error not surfaced")
	}
}
