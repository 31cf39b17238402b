package supervisor

import (
	"sync"
	"testing"

	"github.com/aretw0/overlord/pkg/domain"
	"github.com/stretchr/testify/assert"
)

type recordingSignaler struct {
	mu         sync.Mutex
	terminated []int
	killed     []int
}

func (r *recordingSignaler) Terminate(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminated = append(r.terminated, pid)
	return nil
}

func (r *recordingSignaler) Kill(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.killed = append(r.killed, pid)
	return nil
}

func newTestSet(pids ...int) *Set {
	specs := make([]domain.CommandSpec, len(pids))
	for i := range pids {
		specs[i] = domain.CommandSpec{ID: i + 1, Line: "true"}
	}
	set := NewSet(specs)
	for i, pid := range pids {
		set.procs[i].pid = pid
	}
	return set
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestCoordinator_GracefulThenEscalate(t *testing.T) {
	sig := &recordingSignaler{}
	set := newTestSet(101, 0, 103)
	c := NewCoordinator(set, sig)

	assert.Equal(t, domain.Running, set.State())
	assert.False(t, isClosed(c.Stopping()))

	// 1. First graceful request terminates every recorded pid
	from, to := c.Request(domain.RequestGraceful)
	assert.Equal(t, domain.Running, from)
	assert.Equal(t, domain.TerminationRequested, to)
	assert.Equal(t, []int{101, 103}, sig.terminated)
	assert.Empty(t, sig.killed)
	assert.True(t, isClosed(c.Stopping()))

	// 2. Second graceful request escalates to a kill
	from, to = c.Request(domain.RequestGraceful)
	assert.Equal(t, domain.TerminationRequested, from)
	assert.Equal(t, domain.ForceKillRequested, to)
	assert.Equal(t, []int{101, 103}, sig.killed)

	// 3. Anything after that is a no-op
	from, to = c.Request(domain.RequestGraceful)
	assert.Equal(t, from, to)
	from, to = c.Request(domain.RequestForce)
	assert.Equal(t, domain.ForceKillRequested, to)
	assert.Equal(t, from, to)
	assert.Len(t, sig.killed, 2)
	assert.Len(t, sig.terminated, 2)
}

func TestCoordinator_ForceFromRunning(t *testing.T) {
	sig := &recordingSignaler{}
	set := newTestSet(7, 8)
	c := NewCoordinator(set, sig)

	from, to := c.Request(domain.RequestForce)
	assert.Equal(t, domain.Running, from)
	assert.Equal(t, domain.ForceKillRequested, to)
	assert.Equal(t, []int{7, 8}, sig.killed)
	assert.Empty(t, sig.terminated)
	assert.True(t, isClosed(c.Stopping()))
}

func TestCoordinator_DoesNotMutateSet(t *testing.T) {
	set := newTestSet(1, 2, 3)
	c := NewCoordinator(set, &recordingSignaler{})

	c.Request(domain.RequestForce)
	assert.Equal(t, 3, set.Len(), "removal is left to the supervising goroutines")
}

func TestSet_RemoveKeepsOrder(t *testing.T) {
	set := newTestSet(0, 0, 0, 0)
	entries := set.entries()

	set.remove(entries[1])
	set.remove(entries[3])

	st := set.Snapshot()
	if assert.Len(t, st.Processes, 2) {
		assert.Equal(t, 1, st.Processes[0].ID)
		assert.Equal(t, 3, st.Processes[1].ID)
	}
	assert.Equal(t, domain.ProcessRemoved, entries[1].state)
}
