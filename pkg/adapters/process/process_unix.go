//go:build unix

package process

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/aretw0/overlord/pkg/domain"
	"golang.org/x/sys/unix"
)

// setProcessGroup places the child in its own process group so that
// terminal-generated interrupts (Ctrl+C) are not delivered to it directly.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// Wait returns the child's exit status, reaping it. Interrupted waits are
// retried. A child that was already collected elsewhere (ECHILD) is reported
// as exited with Reaped=false.
func (p *Process) Wait() (domain.ExitStatus, error) {
	status, _, err := p.wait4(0)
	return status, err
}

// TryWait reaps the child if it has exited and reports whether it had.
// It never blocks, so callers may hold a lock around it and clear the
// recorded pid in the same critical section.
func (p *Process) TryWait() (domain.ExitStatus, bool, error) {
	return p.wait4(unix.WNOHANG)
}

func (p *Process) wait4(options int) (domain.ExitStatus, bool, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(p.Pid, &ws, options, nil)
		switch {
		case err == nil && wpid == 0:
			return domain.ExitStatus{}, false, nil
		case err == nil:
			status := domain.ExitStatus{Code: ws.ExitStatus(), Reaped: true}
			if ws.Signaled() {
				status.Code = -1
				status.Signal = unix.SignalName(ws.Signal())
			}
			return status, true, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return domain.ExitStatus{Code: -1}, true, nil
		default:
			return domain.ExitStatus{}, false, fmt.Errorf("%w: pid %d: %w", domain.ErrWait, p.Pid, err)
		}
	}
}

// GroupSignaler delivers signals to a child's whole process group, falling
// back to the pid itself. It does not allocate.
type GroupSignaler struct{}

// Terminate sends SIGTERM.
func (GroupSignaler) Terminate(pid int) error {
	return signalGroup(pid, unix.SIGTERM)
}

// Kill sends SIGKILL.
func (GroupSignaler) Kill(pid int) error {
	return signalGroup(pid, unix.SIGKILL)
}

func signalGroup(pid int, sig unix.Signal) error {
	// kill(0) and kill(-1) would hit ourselves or everything we may signal.
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(-pid, sig); err == nil {
		return nil
	}
	return unix.Kill(pid, sig)
}
