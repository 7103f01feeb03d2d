package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"syscall"

	"golang.org/x/term"

	"github.com/Dirli-V/scape/internal/comp"
	"github.com/Dirli-V/scape/internal/config"
	"github.com/Dirli-V/scape/internal/eventloop"
	"github.com/Dirli-V/scape/internal/geometry"
	"github.com/Dirli-V/scape/internal/ipc"
	"github.com/Dirli-V/scape/internal/xwm"
)

func runCompositor(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scape run [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the compositor in the foreground.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Config file path (default: ~/.config/scape/config.yaml)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, warnings, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, logCleanup, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logCleanup()
	for _, w := range warnings {
		logger.Warn("config issue", "warning", w)
	}

	loop, err := eventloop.New(logger)
	if err != nil {
		logger.Error("failed to create event loop", "error", err)
		return 1
	}
	defer loop.Close()

	engine := comp.NewEngine(comp.Config{
		Logger:  logger,
		Loop:    loop,
		Spawner: execSpawner{},
	})

	if err := buildSpaces(engine, cfg); err != nil {
		logger.Error("failed to set up spaces", "error", err)
		return 1
	}

	conn, err := xwm.Connect(loop)
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer conn.Close()

	out := comp.NewOutput("X11-0", conn.ScreenSize(), 1)
	if err := engine.OutputAdded(spaceForOutput(cfg, out.Name), out); err != nil {
		logger.Error("failed to register output", "output", out.Name, "error", err)
		return 1
	}
	logger.Info("output registered", "output", out.Name, "size", out.Size)

	wm := xwm.New(engine, conn, cfg.DefaultSpace)

	for combo, binding := range cfg.Bindings {
		action := actionFromBinding(binding)
		if err := conn.BindKey(combo, func() { engine.Execute(action) }); err != nil {
			logger.Warn("failed to bind key", "combo", combo, "error", err)
		}
	}

	engine.SetHooks(comp.Hooks{
		OnStartup: func() {
			for _, command := range cfg.Startup {
				engine.Spawn(command)
			}
		},
		OnConnectorChange: func(outputs []comp.OutputInfo) {
			logger.Info("connector change", "outputs", len(outputs))
		},
		OnQuit: loop.Stop,
	})

	server, err := ipc.NewServer(engine, loop, logger)
	if err != nil {
		logger.Error("failed to create control server", "error", err)
		return 1
	}
	if err := server.Start(); err != nil {
		logger.Error("failed to start control server", "error", err)
		return 1
	}
	defer server.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		loop.Stop()
	}()

	go conn.Run(wm)

	engine.RunStartup()
	logger.Info("compositor started", "default_space", cfg.DefaultSpace)
	if err := loop.Run(); err != nil {
		logger.Error("event loop failed", "error", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (config.Config, []string, error) {
	if path == "" {
		return config.LoadDefault()
	}
	return config.Load(path)
}

// buildLogger builds the process logger from config: text output on an
// interactive stderr, JSON otherwise (including log files).
func buildLogger(cfg config.Config) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stderr
	cleanup := func() {}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		cleanup = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFile == "" && term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler), cleanup, nil
}

// buildSpaces creates the configured spaces and zones, default space first
// so it becomes the engine's fallback.
func buildSpaces(engine *comp.Engine, cfg config.Config) error {
	names := make([]string, 0, len(cfg.Spaces))
	for name := range cfg.Spaces {
		if name != cfg.DefaultSpace {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	names = append([]string{cfg.DefaultSpace}, names...)

	for _, name := range names {
		sp, err := engine.AddSpace(name)
		if err != nil {
			return err
		}
		for _, z := range cfg.Spaces[name].Zones {
			zone := comp.Zone{
				Name:    z.Name,
				Rect:    geometry.Rect{X: z.X, Y: z.Y, Width: z.Width, Height: z.Height},
				Default: z.Default,
			}
			if err := sp.AddZone(zone); err != nil {
				return err
			}
		}
	}
	return nil
}

// spaceForOutput returns the space an output is assigned to in config, or
// the default space when no assignment mentions it.
func spaceForOutput(cfg config.Config, output string) string {
	names := make([]string, 0, len(cfg.Spaces))
	for name := range cfg.Spaces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, assigned := range cfg.Spaces[name].Outputs {
			if assigned == output {
				return name
			}
		}
	}
	return cfg.DefaultSpace
}

func actionFromBinding(b config.Binding) comp.Action {
	a := comp.Action{
		Command: b.Command,
		AppID:   b.AppID,
		Window:  b.Window,
		Zone:    b.Zone,
		Space:   b.Space,
	}
	switch b.Action {
	case "quit":
		a.Kind = comp.ActionQuit
	case "spawn":
		a.Kind = comp.ActionSpawn
	case "focus-or-spawn":
		a.Kind = comp.ActionFocusOrSpawn
	case "move-window":
		a.Kind = comp.ActionMoveWindow
	case "close-window":
		a.Kind = comp.ActionCloseWindow
	case "tab":
		a.Kind = comp.ActionTab
	}
	return a
}

// execSpawner launches commands through the shell, detached from the
// compositor's lifetime.
type execSpawner struct{}

func (execSpawner) Spawn(command string) error {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
