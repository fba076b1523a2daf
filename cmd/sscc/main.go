package main

import (
	"fmt"
	"os"

	"github.com/standardbeagle/sscc/internal/debug"
	"github.com/standardbeagle/sscc/internal/embedded"
	"github.com/standardbeagle/sscc/internal/launch"
)

func main() {
	if debug.IsDebugEnabled() {
		debug.SetDebugOutput(os.Stderr)
	}

	plan, err := launch.Parse(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: sscc [options] file...")
		os.Exit(2)
	}

	os.Exit(launch.Run(plan, launch.Options{
		CoreArchive: embedded.CoreArchive(),
		Backend:     embedded.BackendExecutable(),
	}))
}
