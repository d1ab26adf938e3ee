package domain

// HostState is a state of the reload state machine.
type HostState string

const (
	StateStarting   HostState = "STARTING"
	StateServing    HostState = "SERVING"
	StateRestarting HostState = "RESTARTING"
	StateStopped    HostState = "STOPPED"
)

var transitions = map[HostState][]HostState{
	StateStarting:   {StateServing, StateRestarting, StateStopped},
	StateServing:    {StateRestarting, StateStopped},
	StateRestarting: {StateStarting, StateStopped},
	StateStopped:    {},
}

// CanTransition reports whether the machine may move from one state to another.
// Starting may fall back to Restarting when a worker dies before becoming ready.
func CanTransition(from, to HostState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StateChange is emitted every time the host moves to a new state.
type StateChange struct {
	From       HostState
	To         HostState
	Generation int
	Reason     string
}
