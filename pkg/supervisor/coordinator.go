package supervisor

import (
	"sync"

	"github.com/aretw0/overlord/pkg/domain"
)

// Signaler delivers termination instructions to a child. Implementations
// must not allocate or block: they are called with the set locked.
type Signaler interface {
	Terminate(pid int) error
	Kill(pid int) error
}

// Coordinator is the Shutdown Coordinator. It advances the set's
// ShutdownState and instructs every recorded child, nothing more: records
// are removed later by their supervising goroutines once they observe the
// new state.
type Coordinator struct {
	set      *Set
	signaler Signaler

	stopping chan struct{}
	stopOnce sync.Once
}

// NewCoordinator binds a coordinator to set.
func NewCoordinator(set *Set, signaler Signaler) *Coordinator {
	return &Coordinator{
		set:      set,
		signaler: signaler,
		stopping: make(chan struct{}),
	}
}

// Stopping is closed once the state has left Running.
func (c *Coordinator) Stopping() <-chan struct{} {
	return c.stopping
}

// Request applies req and returns the states before and after. Requests
// made once ForceKillRequested is reached are no-ops (from == to).
func (c *Coordinator) Request(req domain.ShutdownRequest) (from, to domain.ShutdownState) {
	c.set.mu.Lock()
	from = c.set.State()
	to = next(from, req)
	if to != from {
		c.set.state.Store(int32(to))
		c.broadcast(to)
	}
	c.set.mu.Unlock()

	if to != domain.Running {
		c.stopOnce.Do(func() { close(c.stopping) })
	}
	return from, to
}

func next(from domain.ShutdownState, req domain.ShutdownRequest) domain.ShutdownState {
	switch from {
	case domain.Running:
		if req == domain.RequestForce {
			return domain.ForceKillRequested
		}
		return domain.TerminationRequested
	case domain.TerminationRequested:
		return domain.ForceKillRequested
	default:
		return from
	}
}

// broadcast must be called with c.set.mu held. Delivery errors (ESRCH for a
// child that is already draining) are ignored.
func (c *Coordinator) broadcast(to domain.ShutdownState) {
	for _, mp := range c.set.procs {
		if mp.pid == 0 {
			continue
		}
		if to == domain.ForceKillRequested {
			_ = c.signaler.Kill(mp.pid)
		} else {
			_ = c.signaler.Terminate(mp.pid)
		}
	}
}
