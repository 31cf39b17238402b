/*
Package domain contains the core models shared by the Overlord supervisor.

It defines the immutable command description, the per-process and
process-wide state machines, the lifecycle events emitted while commands are
supervised, and the error taxonomy. This package is kept free of I/O so that
adapters (process launching, Redis, HTTP) and the supervisor engine can depend
on it without depending on each other.

# Key Entities

  - CommandSpec: An immutable command line, identified by its position in the input.
  - ProcessState: The phase a single supervised command is in (Starting, Running, Draining...).
  - ShutdownState: The monotonic process-wide state (Running, TerminationRequested, ForceKillRequested).
  - LifecycleHooks: Callbacks for observing starts, exits, removals and shutdown transitions.
*/
package domain
