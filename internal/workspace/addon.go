package workspace

import (
	"fmt"
	"os"

	"github.com/standardbeagle/sscc/internal/archive"
)

// AddonResult reports the outcome of applying one addon archive.
type AddonResult struct {
	Path    string
	Meta    archive.Meta
	Tally   Tally
	Skipped bool

	// Warning is set when the addon was skipped (unreadable file, wrong
	// magic, or truncated name/description header). Integrity failures
	// inside entries are returned as errors
	// instead and abort the launch.
	Warning error
}

// ApplyAddon materialises one addon archive on top of the workspace.
// Collisions overwrite whatever is already there, so applying addons in
// command-line order gives last-write-wins. An addon that cannot be opened
// or has the wrong magic is skipped; a mid-stream integrity breach is fatal.
func (ws *Workspace) ApplyAddon(addonPath string) (AddonResult, error) {
	res := AddonResult{Path: addonPath}

	data, err := os.ReadFile(addonPath)
	if err != nil {
		res.Skipped = true
		res.Warning = fmt.Errorf("cannot open addon file %s: %w", addonPath, err)
		return res, nil
	}

	r, err := archive.NewAddonReader(data)
	if err != nil {
		res.Skipped = true
		res.Warning = fmt.Errorf("invalid addon file format: %s: %w", addonPath, err)
		return res, nil
	}
	res.Meta = r.Meta()

	tally, err := ws.Materialize(r)
	res.Tally = tally
	if err != nil {
		return res, fmt.Errorf("addon %s: %w", addonPath, err)
	}
	return res, nil
}
