package launch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/standardbeagle/sscc/internal/archive"
	"github.com/standardbeagle/sscc/internal/debug"
	"github.com/standardbeagle/sscc/internal/store"
	"github.com/standardbeagle/sscc/internal/workspace"
)

// Options carries everything Run needs besides the parsed plan. The embedded
// blobs arrive as parameters so tests can inject synthetic archives and stub
// back-ends.
type Options struct {
	// CoreArchive is the baked-in CORE blob.
	CoreArchive []byte

	// Backend is the back-end compiler executable, written verbatim into
	// the workspace root.
	Backend []byte

	// BackendName is the filename the executable is written under.
	// Defaults to "tcc".
	BackendName string

	// Stdin, Stdout, Stderr are wired to the child. Launcher banners go to
	// Stdout; diagnostics and progress go to Stderr so the child's stdout
	// stays clean.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Store configures backing-store selection (test hooks included).
	Store store.Options

	// Dir is the directory scanned for sscc-*.addon files. Empty means the
	// process working directory.
	Dir string
}

func (o Options) withDefaults() Options {
	if o.BackendName == "" {
		o.BackendName = "tcc"
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

// Run executes the plan and returns the process exit code: the back-end's
// own code on normal completion, 128+signal if it died by signal, 1 for any
// internal launcher failure, 0 for banner modes.
func Run(plan *Plan, opts Options) int {
	opts = opts.withDefaults()

	switch plan.Mode {
	case ModeHelp:
		printHelp(opts.Stdout)
		return 0
	case ModeVersion:
		printVersion(opts.Stdout)
		return 0
	case ModeListAddons:
		listAddons(opts.Stdout, opts.Dir)
		return 0
	}

	ws, err := workspace.New(opts.Store)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "Error: cannot create workspace: %v\n", err)
		return 1
	}
	// The workspace must not survive process exit on any path.
	defer ws.Destroy()

	if code := populate(ws, plan, opts); code != 0 {
		return code
	}

	backendPath := filepath.Join(ws.Root(), opts.BackendName)
	args := childArgs(ws, plan)
	debug.LogLaunch("spawning %s %v\n", backendPath, args)
	fmt.Fprintf(opts.Stderr, "Starting compilation...\n")

	cmd := exec.Command(backendPath, args...)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	// Spawn and wait rather than replacing our own image: the workspace
	// has to be destroyed after the child exits, so the parent must
	// outlive it.
	err = cmd.Run()
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return exitStatus(ee)
	}
	fmt.Fprintf(opts.Stderr, "Error: failed to execute %s: %v\n", opts.BackendName, err)
	return 1
}

// populate materialises the core, writes the back-end executable, and
// applies addons in order. Returns a non-zero exit code on fatal failure.
func populate(ws *workspace.Workspace, plan *Plan, opts Options) int {
	r, err := archive.NewCoreReader(opts.CoreArchive)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(opts.Stderr, "Extracting core: %d files...\n", r.Remaining())
	tally, err := ws.Materialize(r)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "Error: failed to extract core resources: %v\n", err)
		return 1
	}
	fmt.Fprintf(opts.Stderr, "Core ready: %d files, %d bytes (%s store)\n",
		tally.Files, tally.Bytes, ws.StoreKind())

	if _, err := ws.WriteExecutable(opts.BackendName, opts.Backend); err != nil {
		fmt.Fprintf(opts.Stderr, "Error: cannot create %s binary: %v\n", opts.BackendName, err)
		return 1
	}

	for _, addonPath := range addonList(plan, opts.Dir) {
		res, err := ws.ApplyAddon(addonPath)
		if err != nil {
			fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
			return 1
		}
		if res.Skipped {
			fmt.Fprintf(opts.Stderr, "Warning: %v\n", res.Warning)
			continue
		}
		fmt.Fprintf(opts.Stderr, "Loading addon '%s': %s (%d files, %d bytes)\n",
			res.Meta.Name, res.Meta.Description, res.Tally.Files, res.Tally.Bytes)
	}
	return 0
}

// childArgs builds the back-end argument vector: workspace roots injected in
// fixed order, then the caller's pass-through arguments.
func childArgs(ws *workspace.Workspace, plan *Plan) []string {
	args := []string{
		"-I" + ws.IncludeDir(),
		"-L" + ws.LibDir(),
		"-B" + ws.LibDir(),
		"-static",
	}
	return append(args, plan.Passthrough...)
}

// addonList returns the explicit addons in command-line order. When scanning
// was requested it appends the sscc-*.addon files from dir that were not
// already named explicitly.
func addonList(plan *Plan, dir string) []string {
	addons := plan.Addons
	if !plan.ScanAddons {
		return addons
	}
	explicit := make(map[string]struct{}, len(addons))
	for _, a := range addons {
		explicit[a] = struct{}{}
	}
	for _, found := range discoverAddons(dir) {
		if _, dup := explicit[found]; !dup {
			addons = append(addons, found)
		}
	}
	return addons
}
