// Package status tracks service availability and broadcasts transitions.
package status

import "sync"

type State int

const (
	Starting State = iota
	Running
	Error
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Error:
		return "error"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DefaultMessage is the human-readable text used when a transition carries no
// explicit message.
func (s State) DefaultMessage() string {
	switch s {
	case Starting:
		return "service is starting"
	case Running:
		return "service is running"
	case Error:
		return "service failed to start"
	case Stopped:
		return "service stopped"
	default:
		return ""
	}
}

// Service is the status state machine. Transitions to the current state are
// no-ops and produce no notification. Listeners observe transitions in the
// order they happen; delivery is serialized so no listener sees states out
// of order.
type Service struct {
	// notifyMu serializes transitions and their delivery. Listener
	// callbacks must not call Set.
	notifyMu sync.Mutex

	stateMu sync.RWMutex
	state   State
	message string

	subMu  sync.RWMutex
	subs   map[int]func(State, string)
	nextID int
}

func NewService() *Service {
	return &Service{
		state:   Starting,
		message: Starting.DefaultMessage(),
		subs:    make(map[int]func(State, string)),
	}
}

// Subscribe registers a transition listener and returns its cancel function.
// Both are safe to call at any time, including from within a callback.
func (s *Service) Subscribe(fn func(State, string)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Set transitions to the given state. An empty message selects the state's
// default text. Re-entering the current state is a no-op.
func (s *Service) Set(state State, message string) {
	if message == "" {
		message = state.DefaultMessage()
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.stateMu.Lock()
	if s.state == state {
		s.stateMu.Unlock()
		return
	}
	s.state = state
	s.message = message
	s.stateMu.Unlock()

	s.subMu.RLock()
	fns := make([]func(State, string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(state, message)
	}
}

// Current returns the current state and message.
func (s *Service) Current() (State, string) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state, s.message
}
