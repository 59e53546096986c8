// Package mode holds the process-wide voice mode: the single exclusive owner
// of the utterance stream. The context has exactly one active value at any
// time and is mutated only through Set, by the session arbiter or the guided
// dialogue engine on entry/exit.
package mode

import (
	"sync"

	"github.com/rs/zerolog"

	"voice-session-orchestrator/internal/observability/logging"
)

// Mode is the exclusive owner of the utterance stream.
type Mode string

const (
	Products    Mode = "products"
	Orders      Mode = "orders"
	Opportunity Mode = "opportunity"
	Other       Mode = "other"
)

// Context is the single-writer mode holder plus the voice-session-active
// flag. Readers may be any component; writers are the arbiter and the guided
// engine only.
type Context struct {
	mu     sync.RWMutex
	mode   Mode
	active bool
	log    zerolog.Logger
}

// New returns a context in mode Other with the voice session inactive.
func New() *Context {
	return &Context{
		mode: Other,
		log:  logging.WithComponent("mode"),
	}
}

// Set switches the exclusive stream owner.
func (c *Context) Set(m Mode) {
	c.mu.Lock()
	prev := c.mode
	c.mode = m
	c.mu.Unlock()

	if prev != m {
		c.log.Debug().Str("from", string(prev)).Str("to", string(m)).Msg("Voice mode switched")
	}
}

// Get returns the current mode.
func (c *Context) Get() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

func (c *Context) IsOrders() bool      { return c.Get() == Orders }
func (c *Context) IsProducts() bool    { return c.Get() == Products }
func (c *Context) IsOpportunity() bool { return c.Get() == Opportunity }

// Enable marks a voice session as active.
func (c *Context) Enable() {
	c.mu.Lock()
	c.active = true
	c.mu.Unlock()
}

// Disable marks the voice session inactive.
func (c *Context) Disable() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
}

// VoiceActive reports whether a voice session is in progress.
func (c *Context) VoiceActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}
