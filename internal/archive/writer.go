package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/sscc/internal/codec"
)

// Tree maps a staging directory onto a prefix inside the archive, e.g. a
// host "include" directory onto archive paths "include/...".
type Tree struct {
	Dir    string
	Prefix string
}

// WriteOptions configures archive creation.
type WriteOptions struct {
	// Predicate decides which staged files are retained. Nil retains all.
	Predicate Predicate

	// MaxFileSize skips files larger than this many bytes with a warning.
	// Zero means no ceiling.
	MaxFileSize int64

	// Workers bounds parallel compression. Zero uses GOMAXPROCS. Output
	// byte order is unaffected: entries are emitted in walk order.
	Workers int

	// Warnf receives skip warnings. Nil discards them.
	Warnf func(format string, args ...interface{})

	// Progress receives one call per emitted entry. Nil discards.
	Progress func(relPath string, originalSize, compressedSize int)
}

// Summary reports what a build produced.
type Summary struct {
	Files           int
	OriginalBytes   int64
	CompressedBytes int64
	ArchiveBytes    int64

	// Digest is the xxhash64 of the emitted archive bytes, printed by the
	// builders so rebuilds can be compared without diffing blobs.
	Digest uint64
}

// Writer builds CORE and ADDON archives from staging trees.
type Writer struct {
	opts WriteOptions
}

// NewWriter creates a Writer with the given options.
func NewWriter(opts WriteOptions) *Writer {
	return &Writer{opts: opts}
}

// WriteCore scans the trees and emits a CORE archive to out.
func (w *Writer) WriteCore(out io.Writer, trees []Tree) (Summary, error) {
	return w.write(out, MagicCore, nil, trees)
}

// WriteAddon scans the trees and emits an ADDON archive to out.
func (w *Writer) WriteAddon(out io.Writer, meta Meta, trees []Tree) (Summary, error) {
	return w.write(out, MagicAddon, &meta, trees)
}

type stagedFile struct {
	absPath string
	relPath string
	size    int64
}

func (w *Writer) write(out io.Writer, magic string, meta *Meta, trees []Tree) (Summary, error) {
	staged, err := w.scan(trees)
	if err != nil {
		return Summary{}, err
	}

	compressed, err := w.compressAll(staged)
	if err != nil {
		return Summary{}, err
	}

	h := xxhash.New()
	cw := &countingWriter{w: io.MultiWriter(out, h)}

	if _, err := cw.Write([]byte(magic)); err != nil {
		return Summary{}, err
	}
	if meta != nil {
		if err := writeString(cw, meta.Name); err != nil {
			return Summary{}, err
		}
		if err := writeString(cw, meta.Description); err != nil {
			return Summary{}, err
		}
	}
	if err := writeUint32(cw, uint32(len(staged))); err != nil {
		return Summary{}, err
	}

	var sum Summary
	for i, sf := range staged {
		payload := compressed[i]
		if err := writeString(cw, sf.relPath); err != nil {
			return Summary{}, err
		}
		if err := writeUint32(cw, uint32(sf.size)); err != nil {
			return Summary{}, err
		}
		if err := writeUint32(cw, uint32(len(payload))); err != nil {
			return Summary{}, err
		}
		if _, err := cw.Write(payload); err != nil {
			return Summary{}, err
		}
		sum.Files++
		sum.OriginalBytes += sf.size
		sum.CompressedBytes += int64(len(payload))
		if w.opts.Progress != nil {
			w.opts.Progress(sf.relPath, int(sf.size), len(payload))
		}
	}

	sum.ArchiveBytes = cw.n
	sum.Digest = h.Sum64()
	return sum, nil
}

// scan walks the staging trees in lexical order and returns the retained
// regular files. Symlinks and special files are skipped silently; oversized
// files are skipped with a warning.
func (w *Writer) scan(trees []Tree) ([]stagedFile, error) {
	var staged []stagedFile
	seen := make(map[string]int)

	for _, tree := range trees {
		if _, err := os.Stat(tree.Dir); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", tree.Dir, err)
		}
		root := os.DirFS(tree.Dir)
		err := fs.WalkDir(root, ".", func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			relPath := p
			if tree.Prefix != "" {
				relPath = path.Join(tree.Prefix, p)
			}
			if !ValidatePath(relPath) {
				w.warnf("Warning: skipping unsafe path %s\n", relPath)
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			if w.opts.MaxFileSize > 0 && info.Size() > w.opts.MaxFileSize {
				w.warnf("Warning: skipping %s (%d bytes exceeds limit)\n", relPath, info.Size())
				return nil
			}
			if w.opts.Predicate != nil && !w.opts.Predicate(relPath) {
				return nil
			}
			sf := stagedFile{
				absPath: filepath.Join(tree.Dir, filepath.FromSlash(p)),
				relPath: relPath,
				size:    info.Size(),
			}
			// Last staging tree wins on duplicate paths so the archive
			// never carries two copies of the same file.
			if idx, dup := seen[relPath]; dup {
				staged[idx] = sf
				return nil
			}
			seen[relPath] = len(staged)
			staged = append(staged, sf)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", tree.Dir, err)
		}
	}
	return staged, nil
}

// compressAll compresses staged files with a bounded worker pool. Results
// are indexed by position so emission order matches walk order exactly.
func (w *Writer) compressAll(staged []stagedFile) ([][]byte, error) {
	workers := w.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	compressed := make([][]byte, len(staged))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, sf := range staged {
		g.Go(func() error {
			data, err := os.ReadFile(sf.absPath)
			if err != nil {
				return fmt.Errorf("read %s: %w", sf.absPath, err)
			}
			if int64(len(data)) != sf.size {
				return fmt.Errorf("%s changed during build", sf.absPath)
			}
			payload, err := codec.Compress(data)
			if err != nil {
				return fmt.Errorf("compress %s: %w", sf.relPath, err)
			}
			compressed[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return compressed, nil
}

func (w *Writer) warnf(format string, args ...interface{}) {
	if w.opts.Warnf != nil {
		w.opts.Warnf(format, args...)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}
