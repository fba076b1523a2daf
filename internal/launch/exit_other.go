//go:build !unix

package launch

import "os/exec"

func exitStatus(ee *exec.ExitError) int {
	return ee.ExitCode()
}
