// Package codec wraps the xz implementation behind the two operations the
// archive layer needs: whole-buffer compress and exact-length decompress.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// ErrLengthMismatch reports a decompressed stream whose length does not equal
// the length recorded in the archive entry.
var ErrLengthMismatch = errors.New("decompressed length mismatch")

// writerConfig uses a 64 MiB dictionary, matching the highest xz preset.
// Compression runs offline in the archive builders, so ratio wins over speed.
var writerConfig = xz.WriterConfig{DictCap: 1 << 26}

// Compress returns data compressed as a single xz stream.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := writerConfig.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz init: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("xz write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("xz close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress expands an xz stream and verifies that it yields exactly
// expectedLen bytes. Any shortfall, overrun, or stream error fails.
func Decompress(data []byte, expectedLen uint32) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz init: %w", err)
	}

	out := make([]byte, expectedLen)
	if _, err := io.ReadFull(r, out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrLengthMismatch
		}
		return nil, fmt.Errorf("xz read: %w", err)
	}

	// The stream must end exactly at expectedLen.
	var extra [1]byte
	if n, err := r.Read(extra[:]); n != 0 {
		return nil, ErrLengthMismatch
	} else if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("xz read: %w", err)
	}

	return out, nil
}
