package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Dirli-V/scape/internal/config"
)

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  scape config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  scape config print [--path PATH]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/scape/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		_, warnings, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/scape/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg, warnings, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}

		data, err := yaml.Marshal(printableConfig(cfg))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

type configPrint struct {
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file,omitempty"`
	} `yaml:"logging"`
	DefaultSpace string                  `yaml:"default_space"`
	Spaces       map[string]config.Space `yaml:"spaces"`
	Bindings     map[string]string       `yaml:"bindings,omitempty"`
	Startup      []string                `yaml:"startup,omitempty"`
}

// printableConfig renders the effective config in file syntax, with the
// log level back in its textual form and bindings condensed to one line.
func printableConfig(cfg config.Config) configPrint {
	out := configPrint{
		DefaultSpace: cfg.DefaultSpace,
		Spaces:       cfg.Spaces,
		Startup:      cfg.Startup,
	}
	out.Logging.Level = cfg.LogLevel.String()
	out.Logging.File = cfg.LogFile

	if len(cfg.Bindings) > 0 {
		out.Bindings = make(map[string]string, len(cfg.Bindings))
		combos := make([]string, 0, len(cfg.Bindings))
		for combo := range cfg.Bindings {
			combos = append(combos, combo)
		}
		sort.Strings(combos)
		for _, combo := range combos {
			b := cfg.Bindings[combo]
			desc := b.Action
			for _, part := range []string{b.Command, b.AppID, b.Window, b.Zone, b.Space} {
				if part != "" {
					desc += " " + part
				}
			}
			out.Bindings[combo] = desc
		}
	}
	return out
}
