// Package workspace realises archive entries into a transient, process-private
// toolchain tree on a selected backing store. A workspace is owned by exactly
// one launcher invocation and is destroyed unconditionally when it exits.
package workspace

import (
	"fmt"
	"path"

	"github.com/standardbeagle/sscc/internal/archive"
	"github.com/standardbeagle/sscc/internal/codec"
	"github.com/standardbeagle/sscc/internal/debug"
	"github.com/standardbeagle/sscc/internal/store"
)

// Tally counts what materialisation wrote, surfaced to the user after the
// core and after each addon so the memory footprint is visible.
type Tally struct {
	Files int
	Bytes int64
}

// Add accumulates another tally.
func (t *Tally) Add(other Tally) {
	t.Files += other.Files
	t.Bytes += other.Bytes
}

// Workspace is a rooted filesystem view populated from archives. Counters
// and the store choice live on the value, not in package state.
type Workspace struct {
	st    *store.Store
	total Tally
}

// New selects a backing store and returns an empty workspace on it.
func New(opts store.Options) (*Workspace, error) {
	st, err := store.Select(opts)
	if err != nil {
		return nil, err
	}
	return &Workspace{st: st}, nil
}

// Root returns the workspace root directory.
func (ws *Workspace) Root() string {
	return ws.st.Root()
}

// StoreKind returns the backing strategy the workspace landed on.
func (ws *Workspace) StoreKind() store.Kind {
	return ws.st.Kind()
}

// IncludeDir returns the header subtree path.
func (ws *Workspace) IncludeDir() string {
	return ws.st.Path("include")
}

// LibDir returns the library subtree path.
func (ws *Workspace) LibDir() string {
	return ws.st.Path("lib")
}

// Total returns the cumulative tally across core, the back-end executable,
// and addons.
func (ws *Workspace) Total() Tally {
	return ws.total
}

// Materialize writes every entry of the reader into the workspace, one
// decompressed buffer at a time. Paths are re-validated before any
// filesystem object is created; a corrupted intermediate must not escape
// the workspace even though the reader already rejects unsafe paths.
func (ws *Workspace) Materialize(r *archive.Reader) (Tally, error) {
	var tally Tally
	for {
		entry, ok, err := r.Next()
		if err != nil {
			return tally, err
		}
		if !ok {
			break
		}
		if !archive.ValidatePath(entry.Path) {
			return tally, archive.NewFormatError(archive.KindUnsafePath, 0).WithPath(entry.Path)
		}
		if dir := path.Dir(entry.Path); dir != "." {
			if err := ws.st.MkdirAll(dir); err != nil {
				return tally, fmt.Errorf("create directory for %s: %w", entry.Path, err)
			}
		}
		data, err := codec.Decompress(entry.Payload, entry.OriginalSize)
		if err != nil {
			return tally, archive.NewFormatError(archive.KindCorrupt, 0).
				WithPath(entry.Path).
				WithUnderlying(err)
		}
		if err := ws.st.WriteFile(entry.Path, data, 0644); err != nil {
			return tally, fmt.Errorf("write %s: %w", entry.Path, err)
		}
		tally.Files++
		tally.Bytes += int64(len(data))
	}
	ws.total.Add(tally)
	debug.Log("WORKSPACE", "materialised %d files, %d bytes\n", tally.Files, tally.Bytes)
	return tally, nil
}

// WriteExecutable places the back-end executable at the workspace root with
// mode 0755 and returns its path.
func (ws *Workspace) WriteExecutable(name string, data []byte) (string, error) {
	if !archive.ValidatePath(name) || path.Dir(name) != "." {
		return "", fmt.Errorf("invalid executable name %q", name)
	}
	if err := ws.st.WriteFile(name, data, 0755); err != nil {
		return "", err
	}
	ws.total.Add(Tally{Files: 1, Bytes: int64(len(data))})
	return ws.st.Path(name), nil
}

// Destroy removes the workspace and releases every descriptor the store
// owns. Safe to call on every exit path, including after partial
// materialisation.
func (ws *Workspace) Destroy() error {
	return ws.st.Destroy()
}
