//go:build unix

package launch

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// exitStatus maps a finished child to the launcher's exit code: the child's
// own code for normal exits, 128+signal when it died by signal.
func exitStatus(ee *exec.ExitError) int {
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
		st := unix.WaitStatus(ws)
		if st.Signaled() {
			return 128 + int(st.Signal())
		}
		return st.ExitStatus()
	}
	return ee.ExitCode()
}
