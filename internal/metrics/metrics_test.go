package metrics

import (
	"context"
	"testing"

	"github.com/aretw0/overlord/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	hooks := m.Hooks()
	ctx := context.Background()
	spec := domain.CommandSpec{ID: 2, Line: "echo hi"}

	start := domain.NewProcessEvent(domain.EventStart, spec)
	hooks.OnStart(ctx, start)
	hooks.OnStart(ctx, start)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Live))

	exit := domain.NewProcessEvent(domain.EventExit, spec)
	exit.Exit = &domain.ExitStatus{Code: 0, Reaped: true}
	hooks.OnExit(ctx, exit)
	exit.Exit = &domain.ExitStatus{Code: -1, Signal: "SIGTERM", Reaped: true}
	hooks.OnExit(ctx, exit)

	hooks.OnSpawnError(ctx, domain.NewProcessEvent(domain.EventSpawnError, spec))
	hooks.OnOutput(ctx, domain.OutputEvent{CommandID: 2, Bytes: 3})
	hooks.OnShutdown(ctx, &domain.ShutdownEvent{To: domain.TerminationRequested.String()})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Starts.WithLabelValues("2")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Live))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exits.WithLabelValues("2", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exits.WithLabelValues("2", "SIGTERM")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SpawnFailures.WithLabelValues("2")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OutputBytes.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ShutdownState))
}
