package supervisor

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/aretw0/overlord/internal/logging"
	"github.com/aretw0/overlord/pkg/domain"
)

// ExitAbort is the status used when an abort signal ends the program.
const ExitAbort = 0

// Shutdowner accepts shutdown requests. *Supervisor implements it.
type Shutdowner interface {
	Shutdown(ctx context.Context, req domain.ShutdownRequest) domain.ShutdownState
}

// signalAction is what an intercepted OS signal asks for.
type signalAction int

const (
	actionGraceful signalAction = iota
	actionForce
	actionAbort
)

// SignalManager turns OS signals into shutdown requests. The signal handler
// only forwards requests; all set bookkeeping happens in the supervising
// goroutines.
type SignalManager struct {
	target Shutdowner
	logger *slog.Logger
	abort  func(code int)

	sigCh    chan os.Signal
	done     chan struct{}
	stopOnce sync.Once
}

// SignalOption configures the signal manager.
type SignalOption func(*SignalManager)

// WithSignalLogger sets the logger for received signals.
func WithSignalLogger(logger *slog.Logger) SignalOption {
	return func(sm *SignalManager) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithAbort replaces os.Exit for the immediate-abort signal.
func WithAbort(fn func(code int)) SignalOption {
	return func(sm *SignalManager) {
		sm.abort = fn
	}
}

// NewSignalManager creates a manager forwarding to target. Call Start to
// begin intercepting signals.
func NewSignalManager(target Shutdowner, opts ...SignalOption) *SignalManager {
	sm := &SignalManager{
		target: target,
		logger: logging.NewNop(),
		abort:  os.Exit,
		sigCh:  make(chan os.Signal, 4),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Start intercepts the termination signals. Once it returns, those signals
// no longer kill the process.
func (sm *SignalManager) Start() {
	signal.Notify(sm.sigCh, interceptedSignals...)
	go sm.loop()
}

// Stop restores default signal behavior and stops forwarding.
func (sm *SignalManager) Stop() {
	sm.stopOnce.Do(func() {
		signal.Stop(sm.sigCh)
		close(sm.done)
	})
}

func (sm *SignalManager) loop() {
	for {
		select {
		case sig := <-sm.sigCh:
			sm.handle(sig)
		case <-sm.done:
			return
		}
	}
}

func (sm *SignalManager) handle(sig os.Signal) {
	action, ok := actionFor(sig)
	if !ok {
		return
	}
	sm.logger.Info("received signal", "signal", sig.String())

	switch action {
	case actionAbort:
		sm.abort(ExitAbort)
	case actionForce:
		sm.target.Shutdown(context.Background(), domain.RequestForce)
	default:
		sm.target.Shutdown(context.Background(), domain.RequestGraceful)
	}
}
