package launch

import (
	"fmt"
	"io"

	"github.com/standardbeagle/sscc/internal/version"
)

// printHelp writes the help banner. This text and the version banner are the
// only outputs that stay stable across versions.
func printHelp(w io.Writer) {
	fmt.Fprintln(w, version.Name)
	fmt.Fprintln(w, "A portable, modular C compiler with addon support")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: sscc [options] file...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Modular options:")
	fmt.Fprintln(w, "  --addon FILE    Apply an addon archive (repeatable; order matters)")
	fmt.Fprintln(w, "  --scan-addons   Also apply sscc-*.addon files from the current directory")
	fmt.Fprintln(w, "  --list-addons   List addon files in the current directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common options:")
	fmt.Fprintln(w, "  -h, --help      Show this help")
	fmt.Fprintln(w, "  -v, --version   Show version")
	fmt.Fprintln(w, "  -o FILE         Output to FILE")
	fmt.Fprintln(w, "  -g              Include debug information")
	fmt.Fprintln(w, "  -O              Optimize code")
	fmt.Fprintln(w, "  -Wall           Enable warnings")
	fmt.Fprintln(w, "  -I DIR          Add include directory")
	fmt.Fprintln(w, "  -L DIR          Add library directory")
	fmt.Fprintln(w, "  -l LIB          Link with library")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Everything not listed above is passed through to the back-end compiler.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Core features (always available):")
	fmt.Fprintln(w, "  - Essential C standard library headers")
	fmt.Fprintln(w, "  - Basic libc and libm")
	fmt.Fprintln(w, "  - TCC runtime library")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available addons (load as needed):")
	fmt.Fprintln(w, "  - sscc-gmp.addon      GNU Multiple Precision arithmetic")
	fmt.Fprintln(w, "  - sscc-posix.addon    POSIX system calls and threading")
	fmt.Fprintln(w, "  - sscc-network.addon  Network programming support")
}

// printVersion writes the version banner.
func printVersion(w io.Writer) {
	fmt.Fprintln(w, version.FullInfo())
}
