package archive_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/sscc/internal/archive"
	"github.com/standardbeagle/sscc/internal/codec"
	"github.com/standardbeagle/sscc/testhelpers"
)

// stage writes files under include/ and lib/ staging dirs and returns the
// trees the writer maps them to.
func stage(t *testing.T, files map[string]string) []archive.Tree {
	t.Helper()
	dir := t.TempDir()
	testhelpers.WriteStagingTree(t, dir, files)
	return []archive.Tree{
		{Dir: filepath.Join(dir, "include"), Prefix: "include"},
		{Dir: filepath.Join(dir, "lib"), Prefix: "lib"},
	}
}

func readAll(t *testing.T, r *archive.Reader) map[string]string {
	t.Helper()
	got := map[string]string{}
	for {
		entry, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		data, err := codec.Decompress(entry.Payload, entry.OriginalSize)
		require.NoError(t, err)
		got[entry.Path] = string(data)
	}
	return got
}

func TestWriter_CoreRoundTrip(t *testing.T) {
	files := map[string]string{
		"include/stdio.h":          "int printf();",
		"include/bits/alltypes.h":  "typedef unsigned long size_t;",
		"lib/libc.a":               "!<arch>\nlibc contents",
		"lib/libm.a":               "!<arch>\nlibm contents",
	}
	trees := stage(t, files)

	var buf bytes.Buffer
	sum, err := archive.NewWriter(archive.WriteOptions{}).WriteCore(&buf, trees)
	require.NoError(t, err)
	assert.Equal(t, len(files), sum.Files)
	assert.Equal(t, int64(buf.Len()), sum.ArchiveBytes)
	assert.NotZero(t, sum.Digest)

	r, err := archive.NewCoreReader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, files, readAll(t, r))
}

func TestWriter_Deterministic(t *testing.T) {
	files := map[string]string{
		"include/a.h": "aaa",
		"include/b.h": "bbb",
		"lib/c.a":     "ccc",
	}
	trees := stage(t, files)
	w := archive.NewWriter(archive.WriteOptions{Workers: 4})

	var first, second bytes.Buffer
	sum1, err := w.WriteCore(&first, trees)
	require.NoError(t, err)
	sum2, err := w.WriteCore(&second, trees)
	require.NoError(t, err)

	assert.Equal(t, first.Bytes(), second.Bytes())
	assert.Equal(t, sum1.Digest, sum2.Digest)
}

func TestWriter_AddonMeta(t *testing.T) {
	trees := stage(t, map[string]string{"include/gmp.h": "gmp"})

	var buf bytes.Buffer
	meta := archive.Meta{Name: "gmp", Description: "GNU MP"}
	_, err := archive.NewWriter(archive.WriteOptions{}).WriteAddon(&buf, meta, trees)
	require.NoError(t, err)

	r, err := archive.NewAddonReader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, meta, r.Meta())
}

func TestWriter_ExclusionSet(t *testing.T) {
	core := testhelpers.BuildCore(t, map[string]string{
		"include/stdio.h": "core stdio",
		"lib/libc.a":      "core libc",
	})
	set, err := archive.CoreBasenames(core)
	require.NoError(t, err)

	trees := stage(t, map[string]string{
		"include/stdio.h": "addon copy of stdio",
		"include/gmp.h":   "addon gmp",
		"lib/libc.a":      "addon copy of libc",
		"lib/libgmp.a":    "addon libgmp",
	})

	var buf bytes.Buffer
	opts := archive.WriteOptions{Predicate: archive.ExcludeBasenames(set)}
	_, err = archive.NewWriter(opts).WriteAddon(&buf, archive.Meta{Name: "gmp"}, trees)
	require.NoError(t, err)

	r, err := archive.NewAddonReader(buf.Bytes())
	require.NoError(t, err)
	got := readAll(t, r)
	assert.Equal(t, map[string]string{
		"include/gmp.h": "addon gmp",
		"lib/libgmp.a":  "addon libgmp",
	}, got)
}

func TestWriter_PatternPredicate(t *testing.T) {
	trees := stage(t, map[string]string{
		"include/pthread.h":   "pthreads",
		"include/semaphore.h": "semaphores",
		"include/stdio.h":     "stdio",
		"lib/libpthread.a":    "libpthread",
		"lib/libc.a":          "libc",
	})

	var buf bytes.Buffer
	opts := archive.WriteOptions{
		Predicate: archive.MatchPatterns([]string{"*pthread*", "semaphore.h"}),
	}
	_, err := archive.NewWriter(opts).WriteCore(&buf, trees)
	require.NoError(t, err)

	r, err := archive.NewCoreReader(buf.Bytes())
	require.NoError(t, err)
	got := readAll(t, r)
	assert.Equal(t, map[string]string{
		"include/pthread.h":   "pthreads",
		"include/semaphore.h": "semaphores",
		"lib/libpthread.a":    "libpthread",
	}, got)
}

func TestWriter_SizeCeiling(t *testing.T) {
	big := make([]byte, 4096)
	for i := range big {
		big[i] = byte(i)
	}
	trees := stage(t, map[string]string{
		"include/small.h": "ok",
		"lib/huge.a":      string(big),
	})

	var warnings []string
	var buf bytes.Buffer
	opts := archive.WriteOptions{
		MaxFileSize: 1024,
		Warnf: func(format string, args ...interface{}) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	}
	sum, err := archive.NewWriter(opts).WriteCore(&buf, trees)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Files)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "lib/huge.a")
}

func TestWriter_SkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteStagingTree(t, dir, map[string]string{"include/real.h": "real"})
	link := filepath.Join(dir, "include", "link.h")
	if err := os.Symlink(filepath.Join(dir, "include", "real.h"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	var buf bytes.Buffer
	trees := []archive.Tree{{Dir: filepath.Join(dir, "include"), Prefix: "include"}}
	sum, err := archive.NewWriter(archive.WriteOptions{}).WriteCore(&buf, trees)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Files)
}

func TestWriter_MissingTreeIgnored(t *testing.T) {
	trees := []archive.Tree{
		{Dir: filepath.Join(t.TempDir(), "does-not-exist"), Prefix: "include"},
	}
	var buf bytes.Buffer
	sum, err := archive.NewWriter(archive.WriteOptions{}).WriteCore(&buf, trees)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Files)

	r, err := archive.NewCoreReader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 0, r.Remaining())
}
