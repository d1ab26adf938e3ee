//go:build !linux

package runtime

import (
	"os"
	"os/exec"
)

// setPlatformSpecificAttrs is a no-op: Pdeathsig only exists on Linux.
// The supervisor terminates its worker explicitly on shutdown.
func setPlatformSpecificAttrs(cmd *exec.Cmd) {}

func interrupt(p *os.Process) error {
	if err := p.Signal(os.Interrupt); err != nil {
		return p.Kill()
	}
	return nil
}
