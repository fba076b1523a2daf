// mkcore builds the CORE archive that gets baked into the launcher. It scans
// staging include/ and lib/ trees, compresses every retained file, and emits
// the framed blob.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/sscc/internal/archive"
	"github.com/standardbeagle/sscc/internal/buildcfg"
	"github.com/standardbeagle/sscc/internal/version"
	"github.com/standardbeagle/sscc/internal/watch"
)

func main() {
	app := &cli.App{
		Name:    "mkcore",
		Usage:   "Build the sscc core archive from staging directories",
		Version: version.Info(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"m"},
				Usage:   "TOML build manifest",
				Value:   "mkcore.toml",
			},
			&cli.StringFlag{
				Name:    "include",
				Aliases: []string{"I"},
				Usage:   "Staging directory for headers (overrides manifest)",
			},
			&cli.StringFlag{
				Name:    "lib",
				Aliases: []string{"L"},
				Usage:   "Staging directory for libraries (overrides manifest)",
			},
			&cli.StringSliceFlag{
				Name:    "pattern",
				Aliases: []string{"p"},
				Usage:   "Retain only basenames matching these globs (curated core)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output archive file",
				Value:   "core.sscc",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Rebuild whenever the staging directories change",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress per-file progress lines",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	m, err := buildcfg.Load(c.String("manifest"))
	if err != nil {
		return err
	}
	if dir := c.String("include"); dir != "" {
		m.IncludeDir = dir
	}
	if dir := c.String("lib"); dir != "" {
		m.LibDir = dir
	}
	if patterns := c.StringSlice("pattern"); len(patterns) > 0 {
		m.Patterns = patterns
	}

	output := c.String("output")
	quiet := c.Bool("quiet")

	build := func() error {
		return buildCore(m, output, quiet)
	}
	if err := build(); err != nil {
		return err
	}

	if !c.Bool("watch") {
		return nil
	}

	fmt.Printf("Watching %s and %s for changes...\n", m.IncludeDir, m.LibDir)
	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		close(stop)
	}()
	return watch.Dirs([]string{m.IncludeDir, m.LibDir}, watch.DefaultDebounce, stop, func() {
		if err := build(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: rebuild failed: %v\n", err)
		}
	})
}

func buildCore(m *buildcfg.Manifest, output string, quiet bool) error {
	pred := archive.IncludeAll()
	if len(m.Patterns) > 0 {
		pred = archive.MatchPatterns(m.Patterns)
	}

	opts := archive.WriteOptions{
		Predicate:   pred,
		MaxFileSize: m.MaxFileSize, // no ceiling unless the manifest sets one
		Warnf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format, args...)
		},
	}
	if !quiet {
		opts.Progress = func(relPath string, orig, comp int) {
			fmt.Printf("Core: %s (%d -> %d bytes, %.1f%%)\n",
				relPath, orig, comp, pct(orig, comp))
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("cannot create core archive: %w", err)
	}

	sum, err := archive.NewWriter(opts).WriteCore(f, []archive.Tree{
		{Dir: m.IncludeDir, Prefix: "include"},
		{Dir: m.LibDir, Prefix: "lib"},
	})
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("\nCore archive created: %d files, %d bytes (digest %016x)\n",
		sum.Files, sum.ArchiveBytes, sum.Digest)
	fmt.Printf("File: %s\n", output)
	return nil
}

func pct(orig, comp int) float64 {
	if orig == 0 {
		return 0
	}
	return float64(comp) / float64(orig) * 100
}
