package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Dirli-V/scape/internal/ipc"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scape status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show compositor status via the control socket.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("running:        %v\n", status.Running)
	fmt.Printf("spaces:         %d\n", status.Spaces)
	fmt.Printf("outputs:        %d\n", status.Outputs)
	fmt.Printf("windows:        %d\n", status.Windows)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func printWindowUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  scape window list")
	fmt.Fprintln(w, "  scape window move [--zone ZONE] [--space SPACE] <window>")
	fmt.Fprintln(w, "  scape window close <window>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Windows are addressed by title or application id.")
}

func runWindow(args []string) int {
	if len(args) == 0 {
		printWindowUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printWindowUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: scape window list")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		data, err := client.ListWindows()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, w := range data.Windows {
			flags := ""
			if w.Legacy {
				flags += " legacy"
			}
			if w.Maximized {
				flags += " maximized"
			}
			if w.Fullscreen {
				flags += " fullscreen"
			}
			fmt.Printf("%d\t%s\t%s\t%dx%d+%d+%d%s\n",
				w.ID, w.Space, w.Name, w.Width, w.Height, w.X, w.Y, flags)
		}
		return 0

	case "move":
		fs := flag.NewFlagSet("move", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: scape window move [--zone ZONE] [--space SPACE] <window>")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		zone := fs.String("zone", "", "Target zone name")
		space := fs.String("space", "", "Target space name")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "window move requires <window>")
			fs.Usage()
			return 2
		}
		if *zone == "" && *space == "" {
			fmt.Fprintln(os.Stderr, "window move requires --zone or --space")
			fs.Usage()
			return 2
		}
		if err := client.MoveWindow(fs.Arg(0), *zone, *space); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "close":
		fs := flag.NewFlagSet("close", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: scape window close <window>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "window close requires <window>")
			fs.Usage()
			return 2
		}
		if err := client.CloseWindow(fs.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown window command: %s\n\n", args[0])
		printWindowUsage(os.Stderr)
		return 2
	}
}

func runSpace(args []string) int {
	if len(args) == 0 || args[0] != "list" {
		fmt.Fprintln(os.Stderr, "Usage: scape space list")
		if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
			return 0
		}
		return 2
	}

	data, err := ipc.NewClient().ListSpaces()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, sp := range data.Spaces {
		fmt.Printf("%s\twindows=%d\toutputs=%v\tzones=%v\n",
			sp.Name, sp.Windows, sp.Outputs, sp.Zones)
	}
	return 0
}

func runOutput(args []string) int {
	if len(args) == 0 || args[0] != "list" {
		fmt.Fprintln(os.Stderr, "Usage: scape output list")
		if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
			return 0
		}
		return 2
	}

	data, err := ipc.NewClient().ListOutputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, o := range data.Outputs {
		fmt.Printf("%s\t%dx%d+%d+%d\tscale=%g\n",
			o.Name, o.Width, o.Height, o.X, o.Y, o.Scale)
	}
	return 0
}

func runSpawn(args []string) int {
	fs := flag.NewFlagSet("spawn", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scape spawn <command>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start a program inside the compositor session.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "spawn requires <command>")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().Spawn(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
