// Package store selects and owns the backing storage for a launcher
// workspace. Three strategies are tried in order: anonymous memory-resident
// descriptors with an on-disk shadow, a private subdirectory of the shared
// RAM-backed mount, and a private subdirectory under the system temp root.
// Selection probes by attempting the operation, never by inspecting
// configuration.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/standardbeagle/sscc/internal/debug"
)

// Kind identifies the backing strategy a store ended up on.
type Kind int

const (
	// KindMemfd holds each file as an anonymous memory-resident descriptor
	// plus an on-disk shadow in a RAM-backed directory. The shadow exists
	// because the back-end opens files by path, not by descriptor.
	KindMemfd Kind = iota

	// KindShm is a private subdirectory of the shared-memory mount.
	KindShm

	// KindDisk is a private subdirectory under the system temp root.
	KindDisk
)

func (k Kind) String() string {
	switch k {
	case KindMemfd:
		return "anonymous-fd"
	case KindShm:
		return "shared-memory"
	case KindDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// MemoryBacked reports whether no block device is involved.
func (k Kind) MemoryBacked() bool {
	return k == KindMemfd || k == KindShm
}

// Disable masks strategies out of the probe order. It exists for the
// fallback tests; production callers leave it zero.
type Disable uint8

const (
	DisableMemfd Disable = 1 << iota
	DisableShm
)

// Options configures store selection.
type Options struct {
	Disable Disable

	// TempRoot overrides the disk-strategy root. Empty resolves
	// TMPDIR, then TEMP, then the platform temp root.
	TempRoot string

	// ShmDir overrides the shared-memory mount point. Empty uses the
	// platform convention.
	ShmDir string
}

// UnavailableError means no backing store could be created.
type UnavailableError struct {
	Attempts []error
}

// Error implements the error interface
func (e *UnavailableError) Error() string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		msgs = append(msgs, err.Error())
	}
	return "no usable backing store: " + strings.Join(msgs, "; ")
}

// Unwrap returns the probe errors for errors.Is/As
func (e *UnavailableError) Unwrap() []error {
	return e.Attempts
}

// Store is a live backing store rooted at a private directory. It owns the
// directory and every descriptor it opens; Destroy releases both.
type Store struct {
	kind Kind
	root string
	fds  []int
}

// Select probes the strategies in preference order and returns the first
// that can create both a directory and a file.
func Select(opts Options) (*Store, error) {
	var attempts []error

	if opts.Disable&DisableMemfd == 0 {
		s, err := tryMemfd(opts)
		if err == nil {
			debug.LogStore("selected %s store at %s\n", s.kind, s.root)
			return s, nil
		}
		attempts = append(attempts, fmt.Errorf("anonymous-fd: %w", err))
		debug.LogStore("anonymous-fd store unavailable: %v\n", err)
	}

	if opts.Disable&DisableShm == 0 {
		s, err := tryShm(opts)
		if err == nil {
			debug.LogStore("selected %s store at %s\n", s.kind, s.root)
			return s, nil
		}
		attempts = append(attempts, fmt.Errorf("shared-memory: %w", err))
		debug.LogStore("shared-memory store unavailable: %v\n", err)
	}

	s, err := tryDisk(opts)
	if err == nil {
		debug.LogStore("selected %s store at %s\n", s.kind, s.root)
		return s, nil
	}
	attempts = append(attempts, fmt.Errorf("disk: %w", err))

	return nil, &UnavailableError{Attempts: attempts}
}

func tryMemfd(opts Options) (*Store, error) {
	if err := probeMemfd(); err != nil {
		return nil, err
	}
	// The shadow tree must itself stay off block devices for the store to
	// claim memory backing, so it lives under the shared-memory mount.
	root, err := makeRoot(shmDir(opts))
	if err != nil {
		return nil, err
	}
	return &Store{kind: KindMemfd, root: root}, nil
}

func tryShm(opts Options) (*Store, error) {
	root, err := makeRoot(shmDir(opts))
	if err != nil {
		return nil, err
	}
	return &Store{kind: KindShm, root: root}, nil
}

func tryDisk(opts Options) (*Store, error) {
	root, err := makeRoot(tempRoot(opts))
	if err != nil {
		return nil, err
	}
	return &Store{kind: KindDisk, root: root}, nil
}

// makeRoot creates a private directory under parent and verifies that file
// creation inside it works. A strategy only succeeds if both do.
func makeRoot(parent string) (string, error) {
	root, err := os.MkdirTemp(parent, "sscc_")
	if err != nil {
		return "", err
	}
	probe := filepath.Join(root, ".probe")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		os.Remove(root)
		return "", err
	}
	f.Close()
	os.Remove(probe)
	return root, nil
}

func shmDir(opts Options) string {
	if opts.ShmDir != "" {
		return opts.ShmDir
	}
	return platformShmDir
}

func tempRoot(opts Options) string {
	if opts.TempRoot != "" {
		return opts.TempRoot
	}
	return env.Str("TMPDIR", env.Str("TEMP", os.TempDir()))
}

// Kind returns the strategy the store landed on.
func (s *Store) Kind() Kind {
	return s.kind
}

// Root returns the private directory all paths are rooted at.
func (s *Store) Root() string {
	return s.root
}

// Path resolves an archive-relative, forward-slash path under the root.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// MkdirAll creates intermediate directories for rel with mode 0755.
func (s *Store) MkdirAll(rel string) error {
	return os.MkdirAll(s.Path(rel), 0755)
}

// WriteFile writes data at the archive-relative path rel. On the
// anonymous-fd strategy the bytes are also pinned in an unnamed
// memory-resident descriptor owned by the store.
func (s *Store) WriteFile(rel string, data []byte, mode fs.FileMode) error {
	if s.kind == KindMemfd {
		fd, err := newMemfd(filepath.Base(rel), data)
		if err != nil {
			return fmt.Errorf("anonymous descriptor for %s: %w", rel, err)
		}
		s.fds = append(s.fds, fd)
	}
	path := s.Path(rel)
	if err := os.WriteFile(path, data, mode); err != nil {
		return err
	}
	// WriteFile's permission argument is filtered through the umask and
	// ignored entirely when the file already exists; the workspace
	// contract fixes the mode either way.
	return os.Chmod(path, mode)
}

// Destroy removes the root directory tree and closes every descriptor the
// store owns. It is safe to call on every exit path.
func (s *Store) Destroy() error {
	for _, fd := range s.fds {
		closeFd(fd)
	}
	s.fds = nil
	return os.RemoveAll(s.root)
}
