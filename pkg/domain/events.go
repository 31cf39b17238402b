package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStart      EventType = "process_start"
	EventExit       EventType = "process_exit"
	EventSpawnError EventType = "spawn_error"
	EventRemove     EventType = "process_remove"
	EventShutdown   EventType = "shutdown"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ProcessEvent describes a lifecycle step of one supervised command.
type ProcessEvent struct {
	EventBase
	CommandID int         `json:"command_id"`
	Command   string      `json:"command"`
	Pid       int         `json:"pid,omitempty"`
	Restarts  int         `json:"restarts"`
	Exit      *ExitStatus `json:"exit,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// NewProcessEvent stamps an event for the given command.
func NewProcessEvent(t EventType, spec CommandSpec) *ProcessEvent {
	return &ProcessEvent{
		EventBase: EventBase{Timestamp: time.Now(), Type: t},
		CommandID: spec.ID,
		Command:   spec.Line,
	}
}

// ShutdownEvent describes a ShutdownState transition.
type ShutdownEvent struct {
	EventBase
	Request string `json:"request"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// OutputEvent reports a chunk written to the combined output.
type OutputEvent struct {
	CommandID int
	Bytes     int
}

// LifecycleHooks defines callbacks for supervisor observability.
// Hooks run on supervisor goroutines and must not block for long.
type LifecycleHooks struct {
	OnStart      func(context.Context, *ProcessEvent)
	OnExit       func(context.Context, *ProcessEvent)
	OnSpawnError func(context.Context, *ProcessEvent)
	OnRemove     func(context.Context, *ProcessEvent)
	OnShutdown   func(context.Context, *ShutdownEvent)
	OnOutput     func(context.Context, OutputEvent)
}

// ChainHooks fans each callback out to every non-nil hook in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		out.OnStart = chain(out.OnStart, h.OnStart)
		out.OnExit = chain(out.OnExit, h.OnExit)
		out.OnSpawnError = chain(out.OnSpawnError, h.OnSpawnError)
		out.OnRemove = chain(out.OnRemove, h.OnRemove)
		out.OnShutdown = chain(out.OnShutdown, h.OnShutdown)
		out.OnOutput = chain(out.OnOutput, h.OnOutput)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
