package overlord

import (
	_ "embed"
	"errors"

	"github.com/aretw0/overlord/pkg/domain"
)

// Version is the release version, read from the VERSION file.
//
//go:embed VERSION
var Version string

// Process exit codes.
const (
	ExitOK        = 0 // orderly shutdown, every child terminated
	ExitConfig    = 1 // command list or settings could not be read
	ExitSetup     = 2 // a runtime resource (listener, client) could not be allocated
	ExitSupervise = 3 // the supervising task could not be started
)

// ExitCode maps an error returned by the CLI to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrConfig):
		return ExitConfig
	case errors.Is(err, domain.ErrAlreadyRunning):
		return ExitSupervise
	default:
		return ExitSetup
	}
}
