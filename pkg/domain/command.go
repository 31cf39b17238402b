package domain

import "fmt"

// CommandSpec is a shell command line to supervise.
// It is created once at startup and never mutated.
type CommandSpec struct {
	// ID is the 1-based position of the command in the input list.
	ID int `json:"id" yaml:"id"`

	// Line is the trimmed command line, executed through the shell.
	Line string `json:"command" yaml:"command"`
}

func (c CommandSpec) String() string {
	return fmt.Sprintf("#%d %q", c.ID, c.Line)
}

// ExitStatus is the collected termination status of a child process.
type ExitStatus struct {
	// Code is the exit code, or -1 when the child was terminated by a signal.
	Code int `json:"code"`

	// Signal is the name of the terminating signal, if any.
	Signal string `json:"signal,omitempty"`

	// Reaped is false when the child had already been collected elsewhere (ECHILD).
	Reaped bool `json:"reaped"`
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "signal: " + s.Signal
	}
	return fmt.Sprintf("exit status %d", s.Code)
}
