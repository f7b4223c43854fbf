//go:build windows

package infrastructure

import "os/exec"

// setProcessGroup is a no-op on Windows; cancellation kills the child only.
func setProcessGroup(cmd *exec.Cmd) {}
