package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"small", []byte("int printf();")},
		{"binary", bytes.Repeat([]byte{0x00, 0xff, 0x7f}, 1000)},
		{"compressible", bytes.Repeat([]byte("abcdefgh"), 4096)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			compressed, err := Compress(tc.data)
			require.NoError(t, err)

			out, err := Decompress(compressed, uint32(len(tc.data)))
			require.NoError(t, err)
			assert.Equal(t, tc.data, out)
		})
	}
}

func TestDecompress_LengthTooShort(t *testing.T) {
	compressed, err := Compress([]byte("hello world"))
	require.NoError(t, err)

	// Claiming more bytes than the stream yields must fail.
	_, err = Decompress(compressed, 100)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestDecompress_LengthTooLong(t *testing.T) {
	compressed, err := Compress([]byte("hello world"))
	require.NoError(t, err)

	// Claiming fewer bytes than the stream yields must also fail: the
	// stream has to end exactly at the expected length.
	_, err = Decompress(compressed, 5)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestDecompress_Garbage(t *testing.T) {
	_, err := Decompress([]byte("this is not an xz stream"), 10)
	assert.Error(t, err)
}

func TestCompress_Reentrant(t *testing.T) {
	// The facade is stateless; two successive compressions of the same
	// input must produce identical output.
	data := bytes.Repeat([]byte("stateless"), 512)
	a, err := Compress(data)
	require.NoError(t, err)
	b, err := Compress(data)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
