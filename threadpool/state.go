package threadpool

// State is the lifecycle stage of a Pool. A pool only moves forward:
// Running, then Draining once Shutdown begins, then Stopped once every
// worker has exited.
type State int32

const (
	Running State = iota
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
