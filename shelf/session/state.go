package session

import "fmt"

// State is the lifecycle position of a session.
type State int32

const (
	Starting State = iota
	Running
	Paused
	ShuttingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case ShuttingDown:
		return "shutting down"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Reasons recorded when a session stops.
const (
	ReasonStartupFailed = "startup failed"
	ReasonTickFailed    = "tick failed"
	ReasonSurfaceClosed = "surface closed"
	ReasonFrameBudget   = "frame budget reached"
	ReasonRuntimeFault  = "runtime fault"
	ReasonShutdown      = "shutdown requested"
)
