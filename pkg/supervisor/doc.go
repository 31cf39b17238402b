/*
Package supervisor implements the Overlord engine: it keeps a fixed list of
shell commands running, merges their standard output into one stream, and
shuts them down on request.

# Components

  - Set: the SupervisionSet plus the process-wide ShutdownState, behind one mutex.
  - Supervisor: one goroutine per command running Starting -> Running -> Draining -> Exited,
    then relaunching or, once shutdown has begun, removing the command.
  - Multiplexer: per-command blocking readers feeding a single writer, so lines are
    written whole and a command's output is fully flushed before it is relaunched.
  - Coordinator: the Running -> TerminationRequested -> ForceKillRequested state machine.
    It only signals children; it never mutates the set.
  - SignalManager: SIGINT/SIGTERM request a graceful stop (a second one kills),
    SIGQUIT kills immediately, SIGABRT exits at once.

# Usage

	sup := supervisor.New(specs, supervisor.WithLogger(logger))

	signals := supervisor.NewSignalManager(sup)
	signals.Start()
	defer signals.Stop()

	if err := sup.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package supervisor
