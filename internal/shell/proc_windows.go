//go:build windows

package shell

import (
	"os"
	"os/exec"
)

const (
	defaultShell = "cmd"
	shellFlag    = "/C"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return killProcessGroup(cmd.Process)
	}
}

func killProcessGroup(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}

func exitCode(state *os.ProcessState) int {
	if state == nil {
		return ExitFailure
	}
	return state.ExitCode()
}
