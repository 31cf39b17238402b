package domain_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aretw0/overlord/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestShutdownState_String(t *testing.T) {
	assert.Equal(t, "running", domain.Running.String())
	assert.Equal(t, "termination_requested", domain.TerminationRequested.String())
	assert.Equal(t, "force_kill_requested", domain.ForceKillRequested.String())
	assert.Equal(t, "unknown", domain.ShutdownState(7).String())
}

func TestParseShutdownRequest(t *testing.T) {
	tests := []struct {
		in   string
		want domain.ShutdownRequest
		ok   bool
	}{
		{"", domain.RequestGraceful, true},
		{"graceful", domain.RequestGraceful, true},
		{"term", domain.RequestGraceful, true},
		{"force", domain.RequestForce, true},
		{"kill", domain.RequestForce, true},
		{"reboot", domain.RequestGraceful, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := domain.ParseShutdownRequest(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExitStatus_String(t *testing.T) {
	assert.Equal(t, "exit status 3", domain.ExitStatus{Code: 3}.String())
	assert.Equal(t, "signal: SIGKILL", domain.ExitStatus{Code: -1, Signal: "SIGKILL"}.String())
}

func TestSpawnError(t *testing.T) {
	err := error(&domain.SpawnError{
		Command: domain.CommandSpec{ID: 2, Line: "nope"},
		Err:     os.ErrPermission,
	})

	assert.ErrorIs(t, err, domain.ErrSpawn)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), `#2 "nope"`)

	var spawnErr *domain.SpawnError
	assert.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, 2, spawnErr.Command.ID)
}

func TestChainHooks(t *testing.T) {
	var calls []string
	first := domain.LifecycleHooks{
		OnStart: func(context.Context, *domain.ProcessEvent) { calls = append(calls, "first.start") },
	}
	second := domain.LifecycleHooks{
		OnStart:  func(context.Context, *domain.ProcessEvent) { calls = append(calls, "second.start") },
		OnOutput: func(_ context.Context, e domain.OutputEvent) { calls = append(calls, "second.output") },
	}

	hooks := domain.ChainHooks(first, domain.LifecycleHooks{}, second)
	hooks.OnStart(context.Background(), domain.NewProcessEvent(domain.EventStart, domain.CommandSpec{ID: 1}))
	hooks.OnOutput(context.Background(), domain.OutputEvent{CommandID: 1, Bytes: 3})

	assert.Equal(t, []string{"first.start", "second.start", "second.output"}, calls)
	assert.Nil(t, hooks.OnExit, "unset hooks stay nil")
	assert.Nil(t, domain.ChainHooks().OnShutdown)
}
