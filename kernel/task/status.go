package task

// Status describes the lifecycle state of a task.
type Status uint32

const (
	// UnInit is the state of a task that has been created but not yet
	// handed to the scheduler.
	UnInit Status = iota

	// Ready tasks are waiting to be selected by the scheduler.
	Ready

	// Running is the state of the single task currently executing.
	Running

	// Exited is terminal; an exited task is never scheduled again.
	Exited
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case UnInit:
		return "uninit"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Exited:
		return "exited"
	default:
		return "invalid"
	}
}

// canTransition returns true if a task may move from s to next.
func (s Status) canTransition(next Status) bool {
	switch s {
	case UnInit:
		return next == Ready
	case Ready:
		return next == Running
	case Running:
		return next == Ready || next == Exited
	default:
		return false
	}
}
