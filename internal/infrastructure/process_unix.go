//go:build !windows

package infrastructure

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group so cancellation
// also reaches helpers it spawned (ffmpeg) that share its output pipes.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
