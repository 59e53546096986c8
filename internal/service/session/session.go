package session

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voice-session-orchestrator/internal/models"
	"voice-session-orchestrator/internal/observability/logging"
	"voice-session-orchestrator/internal/service/arbiter"
	"voice-session-orchestrator/internal/service/guided"
	"voice-session-orchestrator/internal/service/mode"
	"voice-session-orchestrator/internal/service/speech"
)

// Session is one voice session: a gateway feeding utterances through the
// arbiter on the session loop.
type Session struct {
	ID string

	loop    *Loop
	gateway *speech.Gateway
	arb     *arbiter.Arbiter
	modes   *mode.Context
	flow    *guided.Engine
	nav     arbiter.Navigator

	seq *speech.Sequence
	log zerolog.Logger
}

// Snapshot is the session state exposed on the HTTP API.
type Snapshot struct {
	SessionID  string          `json:"sessionId"`
	Mode       string          `json:"mode"`
	Listening  bool            `json:"listening"`
	MutedToAPI bool            `json:"mutedToApi"`
	View       string          `json:"view"`
	Guided     guided.Snapshot `json:"guided"`
}

// New assembles a session. The collaborators must all have been constructed
// against the same loop's Post function.
func New(id string, loop *Loop, gateway *speech.Gateway, arb *arbiter.Arbiter, modes *mode.Context, flow *guided.Engine, nav arbiter.Navigator) *Session {
	return &Session{
		ID:      id,
		loop:    loop,
		gateway: gateway,
		arb:     arb,
		modes:   modes,
		flow:    flow,
		nav:     nav,
		seq:     speech.NewSequence(),
		log:     logging.WithSession(id).With().Str("component", "session").Logger(),
	}
}

// Start runs the loop and the gateway speaker and opens capture. Recognized
// utterances are arbitrated on the loop, in emission order.
func (s *Session) Start(ctx context.Context) error {
	s.gateway.SetSink(func(u models.Utterance) {
		s.loop.Post(func() { s.arb.Handle(u) })
	})
	s.gateway.SetFailureHandler(func(err error) {
		s.log.Error().Err(err).Msg("Speech capture failed")
		s.loop.Post(func() { s.gateway.Speak("Voice input is unavailable right now.") })
	})

	go s.loop.Run(ctx)
	go s.gateway.Run(ctx)

	s.modes.Enable()
	if err := s.gateway.StartListening(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("Session started")
	return nil
}

// Inject feeds manually entered text through the same arbitration path as
// recognized speech.
func (s *Session) Inject(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	utt := models.Utterance{
		Seq:       s.seq.Next(),
		SessionID: s.ID,
		Text:      trimmed,
		Timestamp: time.Now().UnixMilli(),
	}
	s.loop.Post(func() { s.arb.Handle(utt) })
}

// Snapshot reads the session state from the loop goroutine, so the values
// are mutually consistent.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	done := make(chan Snapshot, 1)
	s.loop.Post(func() {
		done <- Snapshot{
			SessionID:  s.ID,
			Mode:       string(s.modes.Get()),
			Listening:  s.gateway.Listening(),
			MutedToAPI: s.gateway.MutedToAPI(),
			View:       s.nav.Current(),
			Guided:     s.flow.Snapshot(),
		}
	})
	select {
	case snap := <-done:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Close shuts the gateway down.
func (s *Session) Close() error {
	s.modes.Disable()
	s.log.Info().Msg("Session closed")
	return s.gateway.Close()
}
