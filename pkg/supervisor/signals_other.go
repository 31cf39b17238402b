//go:build !unix

package supervisor

import "os"

var interceptedSignals = []os.Signal{os.Interrupt}

func actionFor(sig os.Signal) (signalAction, bool) {
	if sig == os.Interrupt {
		return actionGraceful, true
	}
	return actionGraceful, false
}
