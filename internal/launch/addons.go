package launch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/standardbeagle/sscc/internal/archive"
)

// discoverAddons returns the sscc-*.addon files in dir, sorted so discovery
// order does not depend on directory iteration order.
func discoverAddons(dir string) []string {
	if dir == "" {
		dir = "."
	}
	matches, err := filepath.Glob(filepath.Join(dir, "sscc-*.addon"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// listAddons prints the addon files in dir with their size and, when the
// header parses, the name and description they carry.
func listAddons(w io.Writer, dir string) {
	found := discoverAddons(dir)
	fmt.Fprintln(w, "Available addon files:")
	if len(found) == 0 {
		fmt.Fprintln(w, "  No addon files found in current directory")
		return
	}
	for _, path := range found {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		line := fmt.Sprintf("  %-24s (%d bytes)", filepath.Base(path), info.Size())
		if data, err := os.ReadFile(path); err == nil {
			if r, err := archive.NewAddonReader(data); err == nil {
				meta := r.Meta()
				line = fmt.Sprintf("%s  %s: %s", line, meta.Name, meta.Description)
			}
		}
		fmt.Fprintln(w, line)
	}
}
