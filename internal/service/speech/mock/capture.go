// Package mock provides in-memory speech engines for testing and for running
// the orchestrator without cloud credentials. Recognized text is injected
// programmatically (or over the HTTP utterance endpoint) instead of arriving
// from a microphone.
package mock

import (
	"context"
	"sync"

	"voice-session-orchestrator/internal/service/speech"
)

// Capture implements speech.CaptureEngine with injectable text.
type Capture struct {
	mu      sync.Mutex
	cb      speech.CaptureCallback
	started bool
	closed  bool
}

// NewCapture creates a mock capture engine.
func NewCapture() *Capture {
	return &Capture{}
}

// Start begins a mock recognition session.
func (c *Capture) Start(ctx context.Context, cb speech.CaptureCallback) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return speech.ErrCaptureAborted
	}
	c.cb = cb
	c.started = true
	return nil
}

// Stop ends the session gracefully.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	return nil
}

// Abort cuts the session off and reports the expected aborted error, the way
// a real recognizer does when cancelled mid-utterance.
func (c *Capture) Abort() error {
	c.mu.Lock()
	cb := c.cb
	wasStarted := c.started
	c.started = false
	c.mu.Unlock()

	if wasStarted && cb != nil {
		cb.OnError(speech.ErrCaptureAborted)
	}
	return nil
}

// Emit simulates the engine recognizing one final utterance. Text emitted
// while the session is stopped is dropped, as a real engine would.
func (c *Capture) Emit(text string) {
	c.mu.Lock()
	cb := c.cb
	started := c.started
	c.mu.Unlock()

	if started && cb != nil {
		cb.OnText(text)
	}
}

// Fail simulates a real (non-aborted) engine failure.
func (c *Capture) Fail(err error) {
	c.mu.Lock()
	cb := c.cb
	c.started = false
	c.mu.Unlock()

	if cb != nil {
		cb.OnError(err)
	}
}

// Started reports whether a session is active.
func (c *Capture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Close permanently disables the engine.
func (c *Capture) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.started = false
}
