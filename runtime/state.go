package runtime

import (
	"fmt"
	"log/slog"
	"period-tracker/domain"
	"period-tracker/errors"
	"sync"
)

// StateListener is notified after every accepted transition.
type StateListener func(change domain.StateChange)

// StateMachine guards the host lifecycle: Starting, Serving, Restarting, Stopped.
type StateMachine struct {
	mu        sync.RWMutex
	log       *slog.Logger
	state     domain.HostState
	listeners []StateListener
}

func NewStateMachine(log *slog.Logger, listeners ...StateListener) *StateMachine {
	return &StateMachine{
		log:       log,
		state:     domain.StateStarting,
		listeners: listeners,
	}
}

func (m *StateMachine) Current() domain.HostState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Transition moves to the next state. Stopped is terminal.
func (m *StateMachine) Transition(to domain.HostState, generation int, reason string) error {
	m.mu.Lock()
	from := m.state
	if !domain.CanTransition(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, from, to)
	}
	m.state = to
	listeners := m.listeners
	m.mu.Unlock()

	change := domain.StateChange{From: from, To: to, Generation: generation, Reason: reason}
	m.log.Debug("Host state changed", "from", from, "to", to, "generation", generation, "reason", reason)
	for _, listener := range listeners {
		listener(change)
	}
	return nil
}
