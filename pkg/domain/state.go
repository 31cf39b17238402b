package domain

// ProcessState is the phase of a single supervised command.
type ProcessState string

const (
	ProcessIdle     ProcessState = "idle"     // Created, never launched
	ProcessStarting ProcessState = "starting" // Launch in progress or backing off after a spawn failure
	ProcessRunning  ProcessState = "running"  // Child alive, stream open
	ProcessDraining ProcessState = "draining" // Stream reached EOF, exit status not yet collected
	ProcessExited   ProcessState = "exited"   // Exit status collected
	ProcessRemoved  ProcessState = "removed"  // Terminal, dropped from the set
)

// ShutdownState is the process-wide shutdown phase. It only moves forward.
type ShutdownState int32

const (
	Running ShutdownState = iota
	TerminationRequested
	ForceKillRequested
)

func (s ShutdownState) String() string {
	switch s {
	case Running:
		return "running"
	case TerminationRequested:
		return "termination_requested"
	case ForceKillRequested:
		return "force_kill_requested"
	default:
		return "unknown"
	}
}

// ShutdownRequest is an operator request that advances the ShutdownState.
type ShutdownRequest int

const (
	// RequestGraceful asks children to terminate. Repeating it escalates to a kill.
	RequestGraceful ShutdownRequest = iota
	// RequestForce kills every child immediately.
	RequestForce
)

func (r ShutdownRequest) String() string {
	if r == RequestForce {
		return "force"
	}
	return "graceful"
}

// ParseShutdownRequest maps the external names ("graceful", "force") to a request.
func ParseShutdownRequest(s string) (ShutdownRequest, bool) {
	switch s {
	case "", "graceful", "term":
		return RequestGraceful, true
	case "force", "kill":
		return RequestForce, true
	default:
		return RequestGraceful, false
	}
}
