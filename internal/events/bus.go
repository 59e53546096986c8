// Package events provides the result bus and the optional Kafka mirror.
//
// The bus is a single-slot replay channel: the most recent tagged result is
// the only one retained, and a late subscriber immediately receives it.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voice-session-orchestrator/internal/models"
	"voice-session-orchestrator/internal/observability/logging"
	"voice-session-orchestrator/internal/observability/metrics"
	"voice-session-orchestrator/internal/schema"
)

// Bus broadcasts the latest tagged result to whichever views are subscribed.
// Last write wins; there is no ordering guarantee between publishers.
type Bus struct {
	mu     sync.Mutex
	last   *models.Event
	subs   map[int]chan models.Event
	nextID int

	mirror    *Publisher
	validator *schema.Validator
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewBus creates a result bus. mirror may be nil (no Kafka mirroring).
func NewBus(mirror *Publisher) *Bus {
	return &Bus{
		subs:      make(map[int]chan models.Event),
		mirror:    mirror,
		validator: schema.New(),
		metrics:   metrics.DefaultMetrics,
		log:       logging.WithComponent("bus"),
	}
}

// Publish retains ev as the latest value and fans it out to subscribers.
// Slow subscribers are skipped, not blocked on: the retained value is
// authoritative and can always be re-read via Latest.
func (b *Bus) Publish(ev models.Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}

	if err := b.validator.Validate(ev); err != nil {
		b.log.Warn().Err(err).Str("target", string(ev.Target)).Msg("Publishing invalid event")
	}

	b.mu.Lock()
	b.last = &ev
	channels := make([]chan models.Event, 0, len(b.subs))
	for _, ch := range b.subs {
		channels = append(channels, ch)
	}
	b.mu.Unlock()

	b.metrics.BusPublishes.WithLabelValues(string(ev.Target)).Inc()

	for _, ch := range channels {
		select {
		case ch <- ev:
		default:
			b.log.Warn().Str("target", string(ev.Target)).Msg("Subscriber lagging, event skipped")
		}
	}

	if b.mirror != nil {
		// Mirroring is fire-and-forget; the bus never blocks on Kafka.
		go func() {
			if err := b.mirror.Publish(context.Background(), string(ev.Target), ev); err != nil {
				b.log.Error().Err(err).Msg("Failed to mirror event")
			}
		}()
	}
}

// Subscribe registers a consumer. If a value has already been published, it
// is delivered to the new subscriber immediately. The returned cancel
// function removes the subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan models.Event, func()) {
	ch := make(chan models.Event, 8)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	last := b.last
	b.mu.Unlock()

	if last != nil {
		ch <- *last
	}

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Latest returns the retained event, if any.
func (b *Bus) Latest() (models.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return models.Event{}, false
	}
	return *b.last, true
}
