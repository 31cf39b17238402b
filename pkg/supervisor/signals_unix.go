//go:build unix

package supervisor

import (
	"os"
	"syscall"
)

// interceptedSignals lists the signals the supervisor handles itself.
var interceptedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGABRT}

// actionFor maps SIGINT/SIGTERM to a graceful request (escalating when
// repeated), SIGQUIT to an immediate kill and SIGABRT to an abort.
func actionFor(sig os.Signal) (signalAction, bool) {
	switch sig {
	case syscall.SIGINT, syscall.SIGTERM:
		return actionGraceful, true
	case syscall.SIGQUIT:
		return actionForce, true
	case syscall.SIGABRT:
		return actionAbort, true
	default:
		return actionGraceful, false
	}
}
