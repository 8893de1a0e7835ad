package session

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a streaming session.
type State int

const (
	// StateOpen - Session is accepting chunks.
	StateOpen State = iota
	// StateClosed - Session ended on disconnect or protocol violation. Terminal.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if no further chunks can be accepted.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// CloseReason records why a session ended.
type CloseReason string

const (
	ReasonNone          CloseReason = ""
	ReasonDisconnect    CloseReason = "disconnect"
	ReasonProtocol      CloseReason = "protocol_violation"
	ReasonTransport     CloseReason = "transport_error"
	ReasonMisconfigured CloseReason = "configuration_error"
)

// ErrSessionClosed is returned when a chunk is started on a closed session.
var ErrSessionClosed = errors.New("session is closed")

// Lifecycle manages the state machine for a single session.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	OPEN ──Close(reason)──→ CLOSED
//	  │
//	  └── BeginChunk() ──→ many times, one chunk at a time
//
// There is no externally visible processing state: a chunk is counted when it is
// accepted and the session stays OPEN while it runs.
type Lifecycle struct {
	mu        sync.RWMutex
	sessionId string
	state     State
	chunks    int
	degraded  int
	reason    CloseReason
}

// NewLifecycle creates a new session lifecycle in OPEN state.
func NewLifecycle(sessionId string) *Lifecycle {
	return &Lifecycle{
		sessionId: sessionId,
		state:     StateOpen,
	}
}

// SessionId returns the session ID.
func (l *Lifecycle) SessionId() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sessionId
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsClosed returns true if the session is in a terminal state.
func (l *Lifecycle) IsClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

// BeginChunk counts a newly accepted chunk and returns its 1-based sequence number.
func (l *Lifecycle) BeginChunk() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.IsTerminal() {
		return 0, ErrSessionClosed
	}
	l.chunks++
	return l.chunks, nil
}

// MarkDegraded records that the current chunk produced a degraded result.
func (l *Lifecycle) MarkDegraded() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.degraded++
}

// Chunks returns the number of chunks accepted so far.
func (l *Lifecycle) Chunks() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chunks
}

// Degraded returns the number of chunks answered with a degraded result.
func (l *Lifecycle) Degraded() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.degraded
}

// Close transitions the session to CLOSED. Only the first call records its reason.
// Returns true if this call closed the session.
func (l *Lifecycle) Close(reason CloseReason) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateClosed
	l.reason = reason
	return true
}

// Reason returns why the session closed, or ReasonNone while open.
func (l *Lifecycle) Reason() CloseReason {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reason
}
