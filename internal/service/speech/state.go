package speech

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the capture side of the gateway lifecycle.
type State int

const (
	// StateIdle - No capture session; output may speak freely.
	StateIdle State = iota
	// StateListening - Capture is active and may emit text.
	StateListening
	// StateSuspended - Capture was aborted for synthesis; eligible to resume.
	StateSuspended
	// StateClosed - Gateway shut down. Terminal.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateSuspended:
		return "SUSPENDED"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid state transitions.
var (
	ErrGatewayClosed    = errors.New("speech gateway is closed")
	ErrAlreadyListening = errors.New("capture already active")
)

// lifecycle manages the capture state machine for one gateway.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	IDLE ──→ LISTENING ──→ SUSPENDED ──→ LISTENING (resume)
//	  │           │             │
//	  └───────────┴─────────────┴──→ CLOSED (terminal)
//
// Rules:
//   - LISTENING: text may be emitted; synthesis must suspend capture first
//   - SUSPENDED: no text; capture resumes only after synthesis plus delay
//   - CLOSED: all operations return errors or are no-ops
type lifecycle struct {
	mu    sync.RWMutex
	state State
}

func newLifecycle() *lifecycle {
	return &lifecycle{state: StateIdle}
}

// State returns the current state.
func (l *lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// CanEmitText returns true if recognized text may be delivered downstream.
func (l *lifecycle) CanEmitText() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateListening
}

// StartListening transitions to LISTENING from IDLE or SUSPENDED.
func (l *lifecycle) StartListening() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateIdle, StateSuspended:
		l.state = StateListening
		return nil
	case StateListening:
		return ErrAlreadyListening
	case StateClosed:
		return ErrGatewayClosed
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// Suspend records that capture was aborted for synthesis. Only a LISTENING
// session can be suspended; anything else is a no-op returning false.
func (l *lifecycle) Suspend() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateListening {
		return false
	}
	l.state = StateSuspended
	return true
}

// StopListening transitions back to IDLE unless the gateway is closed.
func (l *lifecycle) StopListening() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateClosed {
		return
	}
	l.state = StateIdle
}

// Close transitions to CLOSED. Idempotent.
func (l *lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateClosed
}
