//go:build windows

package runtime

import "os/exec"

// setPlatformSpecificAttrs is a no-op: Pdeathsig is not supported on Windows.
func setPlatformSpecificAttrs(_ *exec.Cmd) {}

// terminate kills the child: Windows has no SIGTERM to forward.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
