// Package testhelpers provides shared utilities for testing the sscc
// launcher: in-memory archive construction, staging trees, and stub
// back-end executables.
package testhelpers

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/standardbeagle/sscc/internal/codec"
)

// BuildCore frames a CORE archive from path -> content pairs. Entries are
// emitted in sorted path order. The framing here is written independently of
// the production writer so the two implementations check each other.
func BuildCore(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("CORE")
	writeEntries(t, &buf, files)
	return buf.Bytes()
}

// BuildAddon frames an ADDON archive with the given metadata.
func BuildAddon(t *testing.T, name, desc string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("ADDON")
	putString(&buf, name)
	putString(&buf, desc)
	writeEntries(t, &buf, files)
	return buf.Bytes()
}

// BuildAddonFile writes an addon archive to dir and returns its path.
func BuildAddonFile(t *testing.T, dir, filename, name, desc string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, BuildAddon(t, name, desc, files), 0644); err != nil {
		t.Fatalf("Failed to write addon file: %v", err)
	}
	return path
}

// CorruptEntrySizes rebuilds a single-entry CORE archive whose recorded
// original_size lies about the payload, for integrity-failure tests.
func CorruptEntrySizes(t *testing.T, path, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("CORE")
	putUint32(&buf, 1)
	putString(&buf, path)
	payload, err := codec.Compress([]byte(content))
	if err != nil {
		t.Fatalf("Failed to compress: %v", err)
	}
	putUint32(&buf, uint32(len(content)+7)) // original_size is a lie
	putUint32(&buf, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

// WriteStagingTree materialises path -> content pairs under dir, creating
// intermediate directories as needed.
func WriteStagingTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

// StubBackend returns the bytes of a shell-script back-end. The launcher
// treats the back-end as an opaque blob, so a script works as well as a
// compiled binary for driving the pipeline under test.
func StubBackend(script string) []byte {
	return []byte("#!/bin/sh\n" + script + "\n")
}

func writeEntries(t *testing.T, buf *bytes.Buffer, files map[string]string) {
	t.Helper()
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	putUint32(buf, uint32(len(paths)))
	for _, path := range paths {
		content := files[path]
		payload, err := codec.Compress([]byte(content))
		if err != nil {
			t.Fatalf("Failed to compress %s: %v", path, err)
		}
		putString(buf, path)
		putUint32(buf, uint32(len(content)))
		putUint32(buf, uint32(len(payload)))
		buf.Write(payload)
	}
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putString(buf *bytes.Buffer, s string) {
	putUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}
