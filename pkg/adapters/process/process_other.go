//go:build !unix

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/aretw0/overlord/pkg/domain"
)

func setProcessGroup(cmd *exec.Cmd) {}

// Wait blocks until the child exits and returns its status.
func (p *Process) Wait() (domain.ExitStatus, error) {
	state, err := p.proc.Wait()
	if err != nil {
		return domain.ExitStatus{}, fmt.Errorf("%w: pid %d: %w", domain.ErrWait, p.Pid, err)
	}
	return domain.ExitStatus{Code: state.ExitCode(), Reaped: true}, nil
}

// TryWait returns the status collected by AwaitExit, if any. os.Process has
// no non-blocking wait, so without AwaitExit it blocks.
func (p *Process) TryWait() (domain.ExitStatus, bool, error) {
	if p.exited != nil {
		return *p.exited, true, nil
	}
	status, err := p.Wait()
	return status, err == nil, err
}

// GroupSignaler falls back to per-process kill where process groups are unavailable.
type GroupSignaler struct{}

// Terminate kills the process; graceful termination is not portable here.
func (GroupSignaler) Terminate(pid int) error {
	return kill(pid)
}

// Kill kills the process.
func (GroupSignaler) Kill(pid int) error {
	return kill(pid)
}

func kill(pid int) error {
	if pid <= 0 {
		return nil
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
