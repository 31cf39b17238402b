//go:build unix

package supervisor

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/aretw0/overlord/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingShutdowner struct {
	mu       sync.Mutex
	requests []domain.ShutdownRequest
}

func (r *recordingShutdowner) Shutdown(_ context.Context, req domain.ShutdownRequest) domain.ShutdownState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return domain.TerminationRequested
}

func (r *recordingShutdowner) recorded() []domain.ShutdownRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ShutdownRequest(nil), r.requests...)
}

func TestSignalManager_Mapping(t *testing.T) {
	target := &recordingShutdowner{}
	aborted := -1
	sm := NewSignalManager(target, WithAbort(func(code int) { aborted = code }))

	sm.handle(syscall.SIGINT)
	sm.handle(syscall.SIGTERM)
	sm.handle(syscall.SIGQUIT)
	sm.handle(syscall.SIGHUP)

	assert.Equal(t, []domain.ShutdownRequest{
		domain.RequestGraceful,
		domain.RequestGraceful,
		domain.RequestForce,
	}, target.recorded())
	assert.Equal(t, -1, aborted)

	sm.handle(syscall.SIGABRT)
	assert.Equal(t, ExitAbort, aborted)
	assert.Len(t, target.recorded(), 3, "abort does not go through the coordinator")
}

func TestSignalManager_Lifecycle(t *testing.T) {
	target := &recordingShutdowner{}
	sm := NewSignalManager(target)
	sm.Start()
	defer sm.Stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	require.Eventually(t, func() bool {
		return len(target.recorded()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, domain.RequestGraceful, target.recorded()[0])

	// Stop is idempotent.
	sm.Stop()
	sm.Stop()
}
