// mkaddon builds ADDON archives: supplementary header/library bundles that
// the launcher applies on top of its baked-in core. Given the core archive
// (--core), an addon build excludes every file whose basename the core
// already ships, so the two never carry overlapping copies of the same file.
// Without --core no exclusion is applied.
package main

import (
	"errors"
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
		Name:    "mkaddon",
		Usage:   "Build an sscc addon archive from staging directories",
		Version: version.Info(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"m"},
				Usage:   "TOML build manifest",
				Value:   "mkaddon.toml",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Addon name shown when the addon loads (overrides manifest)",
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Addon description (overrides manifest)",
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
			&cli.StringFlag{
				Name:    "core",
				Aliases: []string{"c"},
				Usage:   "Core archive whose files are excluded from the addon",
			},
			&cli.StringSliceFlag{
				Name:    "pattern",
				Aliases: []string{"p"},
				Usage:   "Retain only basenames matching these globs",
			},
			&cli.Int64Flag{
				Name:  "max-file-size",
				Usage: "Skip files larger than this many bytes",
				Value: buildcfg.DefaultAddonMaxFileSize,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output addon file",
				Value:   "out.addon",
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
	if name := c.String("name"); name != "" {
		m.Name = name
	}
	if desc := c.String("description"); desc != "" {
		m.Description = desc
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
	if c.IsSet("max-file-size") || m.MaxFileSize == 0 {
		m.MaxFileSize = c.Int64("max-file-size")
	}
	if m.Name == "" {
		return errors.New("addon name is required (--name or manifest)")
	}

	pred, err := predicate(m, c.String("core"))
	if err != nil {
		return err
	}

	output := c.String("output")
	quiet := c.Bool("quiet")

	build := func() error {
		return buildAddon(m, pred, output, quiet)
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

// predicate picks the writer's predicate family. Pattern allow-lists and
// core-derived exclusion sets are separate families and cannot be mixed.
func predicate(m *buildcfg.Manifest, corePath string) (archive.Predicate, error) {
	if len(m.Patterns) > 0 && corePath != "" {
		return nil, errors.New("--core and --pattern select different predicate families; use one")
	}
	if len(m.Patterns) > 0 {
		return archive.MatchPatterns(m.Patterns), nil
	}
	if corePath != "" {
		data, err := os.ReadFile(corePath)
		if err != nil {
			return nil, fmt.Errorf("cannot read core archive: %w", err)
		}
		set, err := archive.CoreBasenames(data)
		if err != nil {
			return nil, fmt.Errorf("cannot load core file list: %w", err)
		}
		fmt.Printf("Loaded %d core files for exclusion from addon\n", len(set))
		return archive.ExcludeBasenames(set), nil
	}
	return archive.IncludeAll(), nil
}

func buildAddon(m *buildcfg.Manifest, pred archive.Predicate, output string, quiet bool) error {
	opts := archive.WriteOptions{
		Predicate:   pred,
		MaxFileSize: m.MaxFileSize,
		Warnf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format, args...)
		},
	}
	if !quiet {
		opts.Progress = func(relPath string, orig, comp int) {
			fmt.Printf("  %s (%d -> %d bytes, %.1f%%)\n",
				relPath, orig, comp, pct(orig, comp))
		}
	}

	fmt.Printf("Creating addon: %s\n", m.Name)
	fmt.Printf("Description: %s\n", m.Description)

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("cannot create addon file: %w", err)
	}

	meta := archive.Meta{Name: m.Name, Description: m.Description}
	sum, err := archive.NewWriter(opts).WriteAddon(f, meta, []archive.Tree{
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

	fmt.Printf("\nAddon created: %d files, %d bytes (digest %016x)\n",
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
