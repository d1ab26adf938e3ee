//go:build linux

package runtime

import (
	"os"
	"os/exec"
	"syscall"
)

// setPlatformSpecificAttrs makes the kernel kill the worker if the
// supervisor dies without terminating it. The worker gets its own process
// group so a terminal CTRL+C only reaches the supervisor, which stops it.
func setPlatformSpecificAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGKILL,
		Setpgid:   true,
	}
}

func interrupt(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
