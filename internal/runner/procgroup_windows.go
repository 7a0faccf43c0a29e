//go:build windows

package runner

import "os/exec"

// setupProcessGroup is a no-op on Windows where Setpgid is unavailable.
// The default exec.CommandContext cancel (kill the process) is used instead.
func setupProcessGroup(cmd *exec.Cmd) {}
