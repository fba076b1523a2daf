// Package embedded binds the baked-in core archive and back-end executable
// into the launcher as read-only byte spans. The committed blobs are
// placeholders (an empty CORE archive and a stub script); release builds
// overwrite blobs/core.sscc with mkcore output and blobs/tcc with the real
// back-end before compiling.
package embedded

import _ "embed"

//go:embed blobs/core.sscc
var coreArchive []byte

//go:embed blobs/tcc
var backendExecutable []byte

// CoreArchive returns the baked-in CORE archive bytes.
func CoreArchive() []byte {
	return coreArchive
}

// BackendExecutable returns the baked-in back-end compiler bytes.
func BackendExecutable() []byte {
	return backendExecutable
}
