package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/overlord/pkg/adapters/process"
	"github.com/aretw0/overlord/pkg/domain"
)

var errStopping = errors.New("shutdown in progress")

// supervise owns the lifecycle of one command:
// Starting -> Running -> Draining -> Exited -> (Starting | Removed).
func (s *Supervisor) supervise(ctx context.Context, mp *ManagedProcess) {
	log := s.logger.With("id", mp.spec.ID, "command", mp.spec.Line)

	for {
		proc, err := s.launch(mp)
		if errors.Is(err, errStopping) {
			break
		}
		if err != nil {
			log.Error("cannot run command", "err", err, "retry_in", s.backoff)
			s.emit(ctx, s.hooks.OnSpawnError, domain.EventSpawnError, mp, func(e *domain.ProcessEvent) { e.Error = err.Error() })
			s.wait()
			continue
		}

		log.Debug("process started", "pid", proc.Pid)
		s.emit(ctx, s.hooks.OnStart, domain.EventStart, mp, func(e *domain.ProcessEvent) { e.Pid = proc.Pid })

		s.drain(mp, proc)
		status := s.reap(mp, proc)

		log.Debug("process exited", "pid", proc.Pid, "status", status.String())
		s.emit(ctx, s.hooks.OnExit, domain.EventExit, mp, func(e *domain.ProcessEvent) {
			e.Pid = proc.Pid
			e.Exit = &status
		})
	}

	s.set.remove(mp)
	log.Debug("command removed")
	s.emit(ctx, s.hooks.OnRemove, domain.EventRemove, mp, nil)
}

// launch starts the next child for mp unless shutdown has begun. The set
// lock is held across the launch so that the coordinator either sees no
// child or a fully recorded one.
func (s *Supervisor) launch(mp *ManagedProcess) (*process.Process, error) {
	s.set.mu.Lock()
	defer s.set.mu.Unlock()

	if s.set.State() != domain.Running {
		return nil, errStopping
	}
	if mp.state == domain.ProcessExited {
		mp.restarts++
	}
	mp.state = domain.ProcessStarting

	proc, err := s.launcher.Launch(mp.spec)
	if err != nil {
		return nil, err
	}

	mp.pid = proc.Pid
	mp.stream = proc.Stdout
	mp.state = domain.ProcessRunning
	mp.startedAt = time.Now()
	return proc, nil
}

// drain copies the child's output until end-of-file. A read error counts
// as end-of-file.
func (s *Supervisor) drain(mp *ManagedProcess, proc *process.Process) {
	if err := s.mux.Drain(proc.Stdout, mp.spec.ID); err != nil {
		s.logger.Warn("output stream failed, treating as closed", "id", mp.spec.ID, "pid", proc.Pid, "err", err)
	}
	_ = proc.Stdout.Close()

	s.set.mu.Lock()
	mp.stream = nil
	mp.state = domain.ProcessDraining
	s.set.mu.Unlock()
}

// reap collects the exit status. The child is reaped and its pid cleared in
// one critical section so the pid cannot be reused while still recorded.
// Only non-blocking waits run under the lock: where AwaitExit cannot wait
// without reaping, or fails, the child is polled instead.
func (s *Supervisor) reap(mp *ManagedProcess, proc *process.Process) domain.ExitStatus {
	if err := proc.AwaitExit(); err != nil {
		s.logger.Warn("waiting for exit failed, polling", "id", mp.spec.ID, "pid", proc.Pid, "err", err)
	}
	defer proc.Release()

	failures := 0
	for {
		s.set.mu.Lock()
		status, exited, err := proc.TryWait()
		if err != nil {
			failures++
		}
		if exited || failures == maxWaitAttempts {
			mp.pid = 0
			mp.state = domain.ProcessExited
			mp.lastExit = &status
			s.set.mu.Unlock()

			if !exited {
				s.logger.Error("giving up on exit status, treating as exited", "id", mp.spec.ID, "pid", proc.Pid, "err", err)
			}
			return status
		}
		s.set.mu.Unlock()

		if err != nil {
			s.logger.Warn("wait failed, retrying", "id", mp.spec.ID, "pid", proc.Pid, "attempt", failures, "err", err)
		}
		time.Sleep(waitRetryDelay)
	}
}

// wait sleeps for the spawn backoff, returning early on shutdown.
func (s *Supervisor) wait() {
	t := time.NewTimer(s.backoff)
	defer t.Stop()

	select {
	case <-t.C:
	case <-s.coord.Stopping():
	}
}

func (s *Supervisor) emit(ctx context.Context, hook func(context.Context, *domain.ProcessEvent), t domain.EventType, mp *ManagedProcess, fill func(*domain.ProcessEvent)) {
	if hook == nil {
		return
	}

	e := domain.NewProcessEvent(t, mp.spec)
	s.set.mu.Lock()
	e.Restarts = mp.restarts
	s.set.mu.Unlock()

	if fill != nil {
		fill(e)
	}
	hook(ctx, e)
}
