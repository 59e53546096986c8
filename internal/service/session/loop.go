// Package session ties a speech gateway, an arbiter and a guided dialogue
// engine together on a single consumer goroutine, so that exactly one
// utterance decision is in flight at a time and no shared dialogue state
// needs locking.
package session

import (
	"context"

	"github.com/rs/zerolog"

	"voice-session-orchestrator/internal/observability/logging"
)

// Loop is the single consumer goroutine all orchestration state is mutated
// on. Gateway text events and backend continuations are posted as tasks and
// drained in order.
type Loop struct {
	tasks chan func()
	log   zerolog.Logger
}

// NewLoop creates a loop with a buffered task queue.
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 64),
		log:   logging.WithComponent("session-loop"),
	}
}

// Run drains tasks until ctx is cancelled. It must be called exactly once.
func (l *Loop) Run(ctx context.Context) {
	l.log.Debug().Msg("Session loop running")
	for {
		select {
		case <-ctx.Done():
			l.log.Debug().Msg("Session loop stopped")
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post schedules fn onto the loop. Blocks only when the queue is full, which
// backpressures the producer rather than dropping work.
func (l *Loop) Post(fn func()) {
	l.tasks <- fn
}
