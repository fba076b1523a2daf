// Package archive implements the CORE/ADDON container format used to ship
// toolchain trees inside the launcher. All integers on the wire are unsigned
// 32-bit little-endian; magic bytes are ASCII with no trailing NUL and there
// is no alignment padding anywhere.
//
// Wire layout:
//
//	CORE:  magic[4] | count:u32 | entry*
//	ADDON: magic[5] | name_len:u32 | name | desc_len:u32 | desc | count:u32 | entry*
//	entry: path_len:u32 | path | original_size:u32 | compressed_size:u32 | payload
package archive

import "strings"

const (
	// MagicCore prefixes the baked-in toolchain archive
	MagicCore = "CORE"

	// MagicAddon prefixes supplementary archives loaded from disk
	MagicAddon = "ADDON"

	// MaxPathLen is the exclusive upper bound for entry path lengths
	MaxPathLen = 4096
)

// Entry is a single file inside an archive. Payload holds the compressed
// bytes; the reader never decompresses, so consumers stream one entry at a
// time through the codec.
type Entry struct {
	Path           string
	OriginalSize   uint32
	CompressedSize uint32
	Payload        []byte
}

// Meta is the pre-entry metadata carried only by addon archives. Name and
// description are surfaced to the user and carry no other obligation.
type Meta struct {
	Name        string
	Description string
}

// ValidatePath rejects entry paths that could escape the extraction root:
// embedded NUL, leading slash, or a ".." segment. Paths are forward-slash
// separated on the wire regardless of host platform.
func ValidatePath(path string) bool {
	if path == "" {
		return false
	}
	if strings.IndexByte(path, 0) >= 0 {
		return false
	}
	if path[0] == '/' {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
