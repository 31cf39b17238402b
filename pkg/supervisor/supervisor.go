package supervisor

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/overlord/internal/logging"
	"github.com/aretw0/overlord/pkg/adapters/process"
	"github.com/aretw0/overlord/pkg/domain"
)

const (
	// DefaultSpawnBackoff is the delay before retrying a command that failed to start.
	DefaultSpawnBackoff = time.Second

	maxWaitAttempts = 10
	waitRetryDelay  = 100 * time.Millisecond // also the exit poll interval
)

// Launcher starts one child per call. *process.ShellLauncher is the default.
type Launcher interface {
	Launch(spec domain.CommandSpec) (*process.Process, error)
}

// Supervisor runs every command of a SupervisionSet, restarting each one
// when it exits until a shutdown request is made.
type Supervisor struct {
	set      *Set
	coord    *Coordinator
	mux      *Multiplexer
	launcher Launcher
	signaler Signaler
	out      io.Writer
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	backoff  time.Duration
	muxOpts  []MuxOption

	running atomic.Bool
}

// Option defines a functional option for configuring the Supervisor.
type Option func(*Supervisor)

// WithLogger sets the structured logger for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLauncher replaces the default /bin/sh launcher.
func WithLauncher(l Launcher) Option {
	return func(s *Supervisor) {
		s.launcher = l
	}
}

// WithSignaler replaces the default process-group signaler.
func WithSignaler(sig Signaler) Option {
	return func(s *Supervisor) {
		s.signaler = sig
	}
}

// WithOutput sets the combined output. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Supervisor) {
		s.out = w
	}
}

// WithLifecycleHooks registers observability hooks. Multiple calls chain.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Supervisor) {
		s.hooks = domain.ChainHooks(s.hooks, hooks)
	}
}

// WithSpawnBackoff sets the delay between failed launch attempts.
func WithSpawnBackoff(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.backoff = d
		}
	}
}

// WithMuxOptions passes options through to the output multiplexer.
func WithMuxOptions(opts ...MuxOption) Option {
	return func(s *Supervisor) {
		s.muxOpts = append(s.muxOpts, opts...)
	}
}

// New creates a supervisor for specs.
func New(specs []domain.CommandSpec, opts ...Option) *Supervisor {
	s := &Supervisor{
		set:      NewSet(specs),
		launcher: process.NewLauncher(),
		signaler: process.GroupSignaler{},
		out:      os.Stdout,
		logger:   logging.NewNop(),
		backoff:  DefaultSpawnBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.coord = NewCoordinator(s.set, s.signaler)
	muxOpts := append([]MuxOption{WithMuxLogger(s.logger), WithMuxHooks(s.hooks)}, s.muxOpts...)
	s.mux = NewMultiplexer(s.out, muxOpts...)
	return s
}

// Run supervises every command until all of them have been removed, which
// happens only after a shutdown request. Cancelling ctx counts as a graceful
// request. Run returns nil on an orderly shutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return domain.ErrAlreadyRunning
	}

	go s.mux.Run()
	defer s.mux.Close()

	// Hooks still run while children wind down after ctx is cancelled.
	hookCtx := context.WithoutCancel(ctx)

	entries := s.set.entries()
	s.logger.Info("supervising commands", "count", len(entries))

	var wg sync.WaitGroup
	for _, mp := range entries {
		mp := mp
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.supervise(hookCtx, mp)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.Shutdown(context.WithoutCancel(ctx), domain.RequestGraceful)
		<-done
	}

	s.logger.Info("all commands stopped")
	return nil
}

// Shutdown forwards req to the Shutdown Coordinator and reports the
// transition. It never blocks on children.
func (s *Supervisor) Shutdown(ctx context.Context, req domain.ShutdownRequest) domain.ShutdownState {
	from, to := s.coord.Request(req)
	if from == to {
		s.logger.Debug("shutdown request ignored", "request", req.String(), "state", to.String())
		return to
	}

	s.logger.Info("shutdown requested", "request", req.String(), "from", from.String(), "to", to.String())
	if s.hooks.OnShutdown != nil {
		s.hooks.OnShutdown(ctx, &domain.ShutdownEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventShutdown},
			Request:   req.String(),
			From:      from.String(),
			To:        to.String(),
		})
	}
	return to
}

// State returns the current ShutdownState.
func (s *Supervisor) State() domain.ShutdownState {
	return s.set.State()
}

// Status returns a snapshot of the SupervisionSet.
func (s *Supervisor) Status() Status {
	return s.set.Snapshot()
}
