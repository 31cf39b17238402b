package supervisor

import (
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/overlord/pkg/domain"
)

// ManagedProcess is the bookkeeping record of one supervised command.
// Its mutable fields are guarded by the owning Set's lock and written only
// by the command's supervising goroutine.
type ManagedProcess struct {
	spec domain.CommandSpec

	pid       int // 0 = not running
	stream    io.ReadCloser
	state     domain.ProcessState
	restarts  int
	lastExit  *domain.ExitStatus
	startedAt time.Time
}

// Spec returns the immutable command this record executes.
func (mp *ManagedProcess) Spec() domain.CommandSpec {
	return mp.spec
}

// Set is the SupervisionSet: the ordered list of managed processes plus the
// process-wide ShutdownState. A single mutex guards both, so a shutdown
// request never observes a half-recorded launch.
type Set struct {
	mu    sync.Mutex
	procs []*ManagedProcess

	// state is written under mu; reads may skip the lock.
	state atomic.Int32
}

// NewSet creates a set with one idle record per spec, in order.
func NewSet(specs []domain.CommandSpec) *Set {
	s := &Set{procs: make([]*ManagedProcess, 0, len(specs))}
	for _, spec := range specs {
		s.procs = append(s.procs, &ManagedProcess{spec: spec, state: domain.ProcessIdle})
	}
	return s
}

// State returns the current ShutdownState.
func (s *Set) State() domain.ShutdownState {
	return domain.ShutdownState(s.state.Load())
}

// Len returns the number of records still supervised.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// entries returns a copy of the current records.
func (s *Set) entries() []*ManagedProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.procs)
}

// remove drops mp while keeping the remaining records in order.
func (s *Set) remove(mp *ManagedProcess) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mp.state = domain.ProcessRemoved
	s.procs = slices.DeleteFunc(s.procs, func(p *ManagedProcess) bool { return p == mp })
}

// ProcessStatus is a point-in-time copy of a ManagedProcess.
type ProcessStatus struct {
	ID        int                 `json:"id"`
	Command   string              `json:"command"`
	Pid       int                 `json:"pid"`
	State     domain.ProcessState `json:"state"`
	Restarts  int                 `json:"restarts"`
	LastExit  *domain.ExitStatus  `json:"last_exit,omitempty"`
	StartedAt *time.Time          `json:"started_at,omitempty"`
}

// Status is a point-in-time copy of the whole set.
type Status struct {
	Shutdown  string          `json:"shutdown"`
	Processes []ProcessStatus `json:"processes"`
}

// Snapshot copies the set under its lock.
func (s *Set) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Shutdown:  s.State().String(),
		Processes: make([]ProcessStatus, 0, len(s.procs)),
	}
	for _, mp := range s.procs {
		ps := ProcessStatus{
			ID:       mp.spec.ID,
			Command:  mp.spec.Line,
			Pid:      mp.pid,
			State:    mp.state,
			Restarts: mp.restarts,
		}
		if mp.lastExit != nil {
			exit := *mp.lastExit
			ps.LastExit = &exit
		}
		if !mp.startedAt.IsZero() {
			started := mp.startedAt
			ps.StartedAt = &started
		}
		st.Processes = append(st.Processes, ps)
	}
	return st
}
