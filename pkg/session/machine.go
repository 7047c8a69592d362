package session

import (
	"log/slog"
	"sync"
	"time"
)

// Change represents a state transition event.
type Change struct {
	FromState State
	ToState   State
	Timestamp time.Time
	Reason    string
}

// Listener observes session state changes.
type Listener interface {
	OnStateChange(event Change)
}

// Machine is the room-join lifecycle state machine. Transitions come only
// from embed lifecycle events and API responses. Fatal is terminal until
// explicit user action; the machine has no leave transition out of fatal, so
// a late leave event can never double-fire the leave navigation.
type Machine struct {
	mu        sync.RWMutex
	current   State
	fatal     *FatalError
	listeners []Listener
	onLeft    func()
	leftFired bool
}

func NewMachine(onLeft func()) *Machine {
	return &Machine{current: StateIdle, onLeft: onLeft}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fatal returns the recorded fatal error, if any.
func (m *Machine) Fatal() *FatalError {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fatal
}

// transitionValid checks if a state transition is valid (must be called with lock held).
func (m *Machine) transitionValid(from, to State) bool {
	validTransitions := map[State][]State{
		StateIdle:    {StateJoining, StateFatal},
		StateJoining: {StateJoined, StateIdle, StateFatal},
		StateJoined:  {StateIdle, StateFatal},
		StateFatal:   {},
	}

	allowed, exists := validTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves to a new state with validation.
func (m *Machine) Transition(state State, reason string) error {
	m.mu.Lock()
	if !m.transitionValid(m.current, state) {
		err := &InvalidTransitionError{From: m.current, To: state}
		m.mu.Unlock()
		return err
	}
	old := m.current
	m.current = state

	event := Change{
		FromState: old,
		ToState:   state,
		Timestamp: time.Now(),
		Reason:    reason,
	}
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l.OnStateChange(event)
	}
	return nil
}

// ReportFatal records a classified embed failure and moves to the fatal
// state. Subsequent leave events are suppressed by construction.
func (m *Machine) ReportFatal(code, message string) FatalError {
	fatal := FatalError{Kind: Classify(code), Message: message}
	m.mu.Lock()
	if m.current == StateFatal {
		m.mu.Unlock()
		return *m.fatal
	}
	m.fatal = &fatal
	m.mu.Unlock()
	_ = m.Transition(StateFatal, fatal.Error())
	return fatal
}

// ReportLeft handles the embed's ordinary leave event. The leave callback
// fires at most once and never after a fatal error.
func (m *Machine) ReportLeft() {
	m.mu.Lock()
	if m.current == StateFatal || m.leftFired {
		m.mu.Unlock()
		return
	}
	m.leftFired = true
	cb := m.onLeft
	m.mu.Unlock()

	_ = m.Transition(StateIdle, "left meeting")
	if cb != nil {
		cb()
	}
}

// AddListener registers a listener for state change events.
func (m *Machine) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// InvalidTransitionError represents an invalid state transition attempt.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}

// LogListener logs every transition through a component logger.
type LogListener struct {
	Log *slog.Logger
}

func (l LogListener) OnStateChange(ev Change) {
	if l.Log == nil {
		return
	}
	l.Log.Info("session_state_changed",
		"from", ev.FromState.String(),
		"to", ev.ToState.String(),
		"reason", ev.Reason)
}
