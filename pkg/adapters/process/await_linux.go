package process

import (
	"errors"
	"fmt"

	"github.com/aretw0/overlord/pkg/domain"
	"golang.org/x/sys/unix"
)

// AwaitExit blocks until the child has exited but leaves it unreaped, so its
// pid cannot be reused until Wait is called. ECHILD is left for Wait to report.
func (p *Process) AwaitExit() error {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, p.Pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		switch {
		case err == nil, errors.Is(err, unix.ECHILD):
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		default:
			return fmt.Errorf("%w: pid %d: %w", domain.ErrWait, p.Pid, err)
		}
	}
}
