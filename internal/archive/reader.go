package archive

import (
	"encoding/binary"

	"github.com/standardbeagle/sscc/internal/debug"
)

// Reader frames entries out of an in-memory archive blob. It validates
// structure and paths but does not decompress payloads; Entry.Payload
// subslices the input without copying.
type Reader struct {
	data      []byte
	off       int
	remaining uint32
	meta      Meta
}

// NewCoreReader opens a CORE archive.
func NewCoreReader(data []byte) (*Reader, error) {
	r := &Reader{data: data}
	if err := r.expectMagic(MagicCore); err != nil {
		return nil, err
	}
	count, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	r.remaining = count
	debug.LogArchive("core archive opened: %d entries, %d bytes\n", count, len(data))
	return r, nil
}

// NewAddonReader opens an ADDON archive and parses its name and description.
func NewAddonReader(data []byte) (*Reader, error) {
	r := &Reader{data: data}
	if err := r.expectMagic(MagicAddon); err != nil {
		return nil, err
	}
	name, err := r.readString()
	if err != nil {
		return nil, err
	}
	desc, err := r.readString()
	if err != nil {
		return nil, err
	}
	count, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	r.meta = Meta{Name: name, Description: desc}
	r.remaining = count
	debug.LogArchive("addon %q opened: %d entries, %d bytes\n", name, count, len(data))
	return r, nil
}

// Meta returns the addon metadata. For CORE archives it is the zero value.
func (r *Reader) Meta() Meta {
	return r.meta
}

// Remaining returns the number of entries not yet consumed.
func (r *Reader) Remaining() int {
	return int(r.remaining)
}

// Next frames the next entry. ok is false once the declared count of entries
// has been consumed.
func (r *Reader) Next() (entry Entry, ok bool, err error) {
	if r.remaining == 0 {
		return Entry{}, false, nil
	}
	r.remaining--

	pathOff := r.off
	pathLen, err := r.readUint32()
	if err != nil {
		return Entry{}, false, err
	}
	if pathLen >= MaxPathLen {
		return Entry{}, false, NewFormatError(KindPathTooLong, pathOff)
	}
	pathBytes, err := r.readBytes(int(pathLen))
	if err != nil {
		return Entry{}, false, err
	}
	path := string(pathBytes)
	if !ValidatePath(path) {
		return Entry{}, false, NewFormatError(KindUnsafePath, pathOff).WithPath(path)
	}

	originalSize, err := r.readUint32()
	if err != nil {
		return Entry{}, false, err
	}
	compressedSize, err := r.readUint32()
	if err != nil {
		return Entry{}, false, err
	}
	payload, err := r.readBytes(int(compressedSize))
	if err != nil {
		var fe *FormatError
		if e, okAs := err.(*FormatError); okAs {
			fe = e.WithPath(path)
		} else {
			fe = NewFormatError(KindTruncated, r.off).WithPath(path)
		}
		return Entry{}, false, fe
	}

	return Entry{
		Path:           path,
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		Payload:        payload,
	}, true, nil
}

func (r *Reader) expectMagic(magic string) error {
	if len(r.data) < len(magic) || string(r.data[:len(magic)]) != magic {
		return NewFormatError(KindBadMagic, 0)
	}
	r.off = len(magic)
	return nil
}

func (r *Reader) readUint32() (uint32, error) {
	if r.off+4 > len(r.data) {
		return 0, NewFormatError(KindTruncated, r.off)
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *Reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, NewFormatError(KindTruncated, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) readString() (string, error) {
	n, err := r.readUint32()
	if err != nil {
		return "", err
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
