package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawZone struct {
	Name    *string `yaml:"name"`
	X       *int    `yaml:"x"`
	Y       *int    `yaml:"y"`
	Width   *int    `yaml:"width"`
	Height  *int    `yaml:"height"`
	Default *bool   `yaml:"default"`
}

type RawSpace struct {
	Outputs []string  `yaml:"outputs"`
	Zones   []RawZone `yaml:"zones"`
}

type RawBinding struct {
	Action  *string `yaml:"action"`
	Command *string `yaml:"command"`
	AppID   *string `yaml:"app_id"`
	Window  *string `yaml:"window"`
	Zone    *string `yaml:"zone"`
	Space   *string `yaml:"space"`
}

type RawLogging struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

type RawConfig struct {
	Include      IncludeList           `yaml:"include"`
	Logging      *RawLogging           `yaml:"logging"`
	DefaultSpace *string               `yaml:"default_space"`
	Spaces       map[string]RawSpace   `yaml:"spaces"`
	Bindings     map[string]RawBinding `yaml:"bindings"`
	Startup      []string              `yaml:"startup"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Logging != nil {
		if out.Logging == nil {
			out.Logging = &RawLogging{}
		}
		if overlay.Logging.Level != nil {
			out.Logging.Level = overlay.Logging.Level
		}
		if overlay.Logging.File != nil {
			out.Logging.File = overlay.Logging.File
		}
	}

	if overlay.DefaultSpace != nil {
		out.DefaultSpace = overlay.DefaultSpace
	}

	if overlay.Spaces != nil {
		if out.Spaces == nil {
			out.Spaces = make(map[string]RawSpace, len(overlay.Spaces))
		}
		for name, sp := range overlay.Spaces {
			base, ok := out.Spaces[name]
			if !ok {
				out.Spaces[name] = sp
				continue
			}
			out.Spaces[name] = mergeRawSpace(base, sp)
		}
	}

	if overlay.Bindings != nil {
		if out.Bindings == nil {
			out.Bindings = make(map[string]RawBinding, len(overlay.Bindings))
		}
		for combo, b := range overlay.Bindings {
			out.Bindings[combo] = b
		}
	}

	if overlay.Startup != nil {
		out.Startup = overlay.Startup
	}

	return out
}

func mergeRawSpace(base RawSpace, overlay RawSpace) RawSpace {
	out := base
	if overlay.Outputs != nil {
		out.Outputs = overlay.Outputs
	}
	if overlay.Zones != nil {
		out.Zones = overlay.Zones
	}
	return out
}
