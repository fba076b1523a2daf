// Package buildcfg loads the optional TOML manifest consumed by the archive
// builder tools. CLI flags override manifest values.
package buildcfg

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultAddonMaxFileSize is the per-file ceiling for addon archives.
// Oversized files are skipped with a warning. Core builds have no ceiling.
const DefaultAddonMaxFileSize = 2 * 1024 * 1024

// Manifest describes one archive build.
type Manifest struct {
	// Name and Description are surfaced to the user when the addon loads.
	// Unused for core builds.
	Name        string `toml:"name"`
	Description string `toml:"description"`

	// IncludeDir and LibDir are the staging directories mapped onto the
	// archive's include/ and lib/ subtrees.
	IncludeDir string `toml:"include_dir"`
	LibDir     string `toml:"lib_dir"`

	// Patterns switches the writer to the pattern-match predicate family:
	// only files whose basename matches one of these globs are retained.
	Patterns []string `toml:"patterns"`

	// MaxFileSize is the per-file ceiling in bytes. Zero means the
	// builder default (no ceiling for core, 2 MiB for addons).
	MaxFileSize int64 `toml:"max_file_size"`
}

// Default returns a manifest with the conventional staging layout.
func Default() *Manifest {
	return &Manifest{
		IncludeDir: "include",
		LibDir:     "lib",
	}
}

// Load reads a TOML manifest from path. A missing file returns the defaults
// unchanged; a malformed file is an error.
func Load(path string) (*Manifest, error) {
	m := Default()
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}
