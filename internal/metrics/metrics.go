// Package metrics exposes supervisor activity as Prometheus collectors.
package metrics

import (
	"context"
	"strconv"

	"github.com/aretw0/overlord/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the supervisor collectors.
type Metrics struct {
	Starts        *prometheus.CounterVec
	Exits         *prometheus.CounterVec
	SpawnFailures *prometheus.CounterVec
	OutputBytes   *prometheus.CounterVec
	Live          prometheus.Gauge
	ShutdownState prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Starts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlord_process_starts_total",
				Help: "Total number of child processes started",
			},
			[]string{"command_id"},
		),
		Exits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlord_process_exits_total",
				Help: "Total number of child exits by status",
			},
			[]string{"command_id", "status"},
		),
		SpawnFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlord_spawn_failures_total",
				Help: "Total number of failed launch attempts",
			},
			[]string{"command_id"},
		),
		OutputBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlord_output_bytes_total",
				Help: "Bytes written to the combined output",
			},
			[]string{"command_id"},
		),
		Live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "overlord_processes_live",
			Help: "Number of children currently running",
		}),
		ShutdownState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "overlord_shutdown_state",
			Help: "0 = running, 1 = termination requested, 2 = force kill requested",
		}),
	}
	reg.MustRegister(m.Starts, m.Exits, m.SpawnFailures, m.OutputBytes, m.Live, m.ShutdownState)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart: func(ctx context.Context, e *domain.ProcessEvent) {
			m.Starts.WithLabelValues(label(e.CommandID)).Inc()
			m.Live.Inc()
		},
		OnExit: func(ctx context.Context, e *domain.ProcessEvent) {
			status := "unknown"
			if e.Exit != nil {
				status = exitLabel(*e.Exit)
			}
			m.Exits.WithLabelValues(label(e.CommandID), status).Inc()
			m.Live.Dec()
		},
		OnSpawnError: func(ctx context.Context, e *domain.ProcessEvent) {
			m.SpawnFailures.WithLabelValues(label(e.CommandID)).Inc()
		},
		OnOutput: func(ctx context.Context, e domain.OutputEvent) {
			m.OutputBytes.WithLabelValues(label(e.CommandID)).Add(float64(e.Bytes))
		},
		OnShutdown: func(ctx context.Context, e *domain.ShutdownEvent) {
			switch e.To {
			case domain.TerminationRequested.String():
				m.ShutdownState.Set(float64(domain.TerminationRequested))
			case domain.ForceKillRequested.String():
				m.ShutdownState.Set(float64(domain.ForceKillRequested))
			}
		},
	}
}

func label(id int) string {
	return strconv.Itoa(id)
}

func exitLabel(s domain.ExitStatus) string {
	if s.Signal != "" {
		return s.Signal
	}
	return strconv.Itoa(s.Code)
}
