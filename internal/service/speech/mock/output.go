package mock

import (
	"context"
	"sync"
	"time"

	"voice-session-orchestrator/internal/service/speech"
)

// Output implements speech.OutputEngine in memory. Each Speak call records
// the prompt and, when Delay is set, blocks until the delay elapses or the
// request is interrupted.
type Output struct {
	// Delay is how long Speak simulates playback for. Zero returns at once.
	Delay time.Duration

	mu         sync.Mutex
	speaking   bool
	forced     bool
	spoken     []string
	interrupts int
	cancel     chan struct{}
}

// NewOutput creates a mock output engine.
func NewOutput() *Output {
	return &Output{}
}

// Speak records the prompt and simulates playback.
func (o *Output) Speak(ctx context.Context, text string, opts speech.SpeakOptions) error {
	o.mu.Lock()
	o.speaking = true
	o.spoken = append(o.spoken, text)
	cancel := make(chan struct{})
	o.cancel = cancel
	delay := o.Delay
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.speaking = false
		o.cancel = nil
		o.mu.Unlock()
	}()

	if delay == 0 {
		return nil
	}

	select {
	case <-time.After(delay):
		return nil
	case <-cancel:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interrupt hard-cancels the in-progress playback.
func (o *Output) Interrupt() {
	o.mu.Lock()
	o.interrupts++
	o.forced = false
	if o.cancel != nil {
		close(o.cancel)
		o.cancel = nil
	}
	o.mu.Unlock()
}

// Stop cancels anything queued or speaking.
func (o *Output) Stop() {
	o.mu.Lock()
	o.forced = false
	if o.cancel != nil {
		close(o.cancel)
		o.cancel = nil
	}
	o.mu.Unlock()
}

// Speaking reports whether playback is in progress.
func (o *Output) Speaking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speaking || o.forced
}

// Queued always reports false: the gateway serializes prompts itself.
func (o *Output) Queued() bool { return false }

// ForceSpeaking pins the speaking flag for tests that need output to appear
// busy without a blocking Speak call.
func (o *Output) ForceSpeaking(v bool) {
	o.mu.Lock()
	o.forced = v
	o.mu.Unlock()
}

// Spoken returns the prompts spoken so far.
func (o *Output) Spoken() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.spoken))
	copy(out, o.spoken)
	return out
}

// Interrupts returns how many times playback was interrupted.
func (o *Output) Interrupts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.interrupts
}
