package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks a fatal configuration failure (unreadable or malformed input).
	ErrConfig = errors.New("config error")

	// ErrSpawn marks a failure to create a child process or its pipe.
	ErrSpawn = errors.New("spawn error")

	// ErrWait marks a failure to collect a child's exit status.
	ErrWait = errors.New("wait error")

	// ErrOutputRead marks a failed read on a child's output stream.
	ErrOutputRead = errors.New("output read error")

	// ErrAlreadyRunning is returned when a supervisor is started twice.
	ErrAlreadyRunning = errors.New("supervisor already running")
)

// SpawnError is returned by a launcher when a child could not be started.
// No process id is assigned when it is returned.
type SpawnError struct {
	Command CommandSpec
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot run command %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() []error {
	return []error{ErrSpawn, e.Err}
}
