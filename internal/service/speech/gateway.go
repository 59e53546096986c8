package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voice-session-orchestrator/internal/models"
	"voice-session-orchestrator/internal/observability/logging"
	"voice-session-orchestrator/internal/observability/metrics"
)

// SinkFunc receives recognized utterances from the gateway.
type SinkFunc func(models.Utterance)

// Gateway coordinates one capture engine and one output engine so that they
// are never simultaneously active:
//
//   - before synthesis starts, an active capture session is aborted, not
//     gracefully stopped, so no tail audio is misrecognized;
//   - after synthesis ends, capture resumes after a fixed short delay, and
//     only if nothing else started capture in the interim;
//   - if capture yields text while synthesis is in progress, the synthesis is
//     interrupted before the text is delivered downstream (barge-in wins).
//
// Speech requests are queued and spoken one at a time by a dedicated
// goroutine; callers never poll the engine for idleness.
type Gateway struct {
	sessionID string
	capture   CaptureEngine
	output    OutputEngine
	opts      SpeakOptions

	resumeDelay time.Duration
	seq         *Sequence
	queue       chan string

	mu          sync.Mutex
	state       *lifecycle
	sink        SinkFunc
	onFailure   func(err error)
	mutedToAPI  bool
	resumeToken int
	captureCtx  context.Context

	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewGateway creates a gateway. resumeDelay is the pause between synthesis
// end and capture resume.
func NewGateway(sessionID string, capture CaptureEngine, output OutputEngine, opts SpeakOptions, resumeDelay time.Duration) *Gateway {
	return &Gateway{
		sessionID:   sessionID,
		capture:     capture,
		output:      output,
		opts:        opts,
		resumeDelay: resumeDelay,
		seq:         NewSequence(),
		queue:       make(chan string, 16),
		state:       newLifecycle(),
		metrics:     metrics.DefaultMetrics,
		log:         logging.WithSession(sessionID).With().Str("component", "speech-gateway").Logger(),
	}
}

// SetSink registers the downstream consumer of recognized utterances.
func (g *Gateway) SetSink(fn SinkFunc) {
	g.mu.Lock()
	g.sink = fn
	g.mu.Unlock()
}

// SetFailureHandler registers the consumer of real (non-aborted) capture
// failures, surfaced to the user as "voice input unavailable".
func (g *Gateway) SetFailureHandler(fn func(err error)) {
	g.mu.Lock()
	g.onFailure = fn
	g.mu.Unlock()
}

// Run starts the speaker goroutine. It returns when ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-g.queue:
			g.synthesize(ctx, text)
		}
	}
}

// StartListening opens a continuous capture session. Starting while already
// listening is a no-op; an explicit start supersedes any scheduled
// resume-after-output.
func (g *Gateway) StartListening(ctx context.Context) error {
	g.mu.Lock()
	g.resumeToken++
	g.captureCtx = ctx
	g.mu.Unlock()

	if err := g.state.StartListening(); err != nil {
		if err == ErrAlreadyListening {
			return nil
		}
		return err
	}

	if err := g.capture.Start(ctx, g); err != nil {
		g.state.StopListening()
		return err
	}
	g.log.Debug().Msg("Capture started")
	return nil
}

// StopListening ends the capture session gracefully.
func (g *Gateway) StopListening() {
	g.mu.Lock()
	g.resumeToken++
	g.mu.Unlock()

	if err := g.capture.Stop(); err != nil {
		g.log.Warn().Err(err).Msg("Capture stop failed")
	}
	g.state.StopListening()
	g.log.Debug().Msg("Capture stopped")
}

// Listening reports whether a capture session is active.
func (g *Gateway) Listening() bool {
	return g.state.State() == StateListening
}

// Speak enqueues text for synthesis. Returns immediately; the speaker
// goroutine serializes requests.
func (g *Gateway) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	select {
	case g.queue <- text:
	default:
		g.log.Warn().Msg("Speech queue full, prompt dropped")
	}
}

// CancelSpeech drains queued prompts and hard-cancels any in-progress
// synthesis.
func (g *Gateway) CancelSpeech() {
	for {
		select {
		case <-g.queue:
		default:
			g.output.Stop()
			return
		}
	}
}

// MuteToAPI tells downstream consumers on the product NLP path to ignore the
// stream. Text keeps flowing to the gateway.
func (g *Gateway) MuteToAPI() {
	g.mu.Lock()
	g.mutedToAPI = true
	g.mu.Unlock()
}

// UnmuteToAPI re-opens the product NLP path.
func (g *Gateway) UnmuteToAPI() {
	g.mu.Lock()
	g.mutedToAPI = false
	g.mu.Unlock()
}

// MutedToAPI reports whether the product NLP path is muted.
func (g *Gateway) MutedToAPI() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mutedToAPI
}

// Close shuts the gateway down: capture stopped, output cancelled, state
// terminal.
func (g *Gateway) Close() error {
	g.CancelSpeech()
	err := g.capture.Stop()
	g.state.Close()
	return err
}

// synthesize runs one queued prompt under the mutual exclusion protocol.
func (g *Gateway) synthesize(ctx context.Context, text string) {
	g.metrics.SynthesisTotal.Inc()

	// Capture must not hear the speaker: abort, don't stop, so buffered tail
	// audio is discarded too.
	if g.state.Suspend() {
		g.mu.Lock()
		g.resumeToken++
		g.mu.Unlock()
		if err := g.capture.Abort(); err != nil {
			g.log.Warn().Err(err).Msg("Capture abort before synthesis failed")
		}
		g.log.Debug().Msg("Capture suspended for synthesis")
	}

	if err := g.output.Speak(ctx, text, g.opts); err != nil && ctx.Err() == nil {
		g.metrics.SynthesisErrors.Inc()
		g.log.Error().Err(err).Msg("Synthesis failed")
	}

	g.scheduleResume()
}

// scheduleResume restarts capture after the configured delay unless another
// start or synthesis claimed the session in the interim.
func (g *Gateway) scheduleResume() {
	g.mu.Lock()
	token := g.resumeToken
	g.mu.Unlock()

	time.AfterFunc(g.resumeDelay, func() {
		g.mu.Lock()
		stale := token != g.resumeToken
		ctx := g.captureCtx
		g.mu.Unlock()

		if stale || g.state.State() != StateSuspended || ctx == nil {
			return
		}
		if err := g.state.StartListening(); err != nil {
			return
		}
		if err := g.capture.Start(ctx, g); err != nil {
			g.state.StopListening()
			g.log.Error().Err(err).Msg("Capture resume failed")
			return
		}
		g.metrics.CaptureResumes.Inc()
		g.log.Debug().Msg("Capture resumed after synthesis")
	})
}

// --- CaptureCallback implementation ---

// OnText delivers one recognized utterance downstream. Barge-in: if the
// output engine is speaking or has queued prompts, it is interrupted before
// the text is delivered.
func (g *Gateway) OnText(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	if g.output.Speaking() || g.output.Queued() {
		g.output.Interrupt()
		g.metrics.BargeIns.Inc()
		g.log.Debug().Msg("Synthesis interrupted, user started speaking")
	}

	g.metrics.UtterancesTotal.Inc()

	g.mu.Lock()
	sink := g.sink
	g.mu.Unlock()
	if sink == nil {
		return
	}

	sink(models.Utterance{
		Seq:       g.seq.Next(),
		SessionID: g.sessionID,
		Text:      trimmed,
		Timestamp: time.Now().UnixMilli(),
	})
}

// OnError handles capture failures. Intentional aborts are expected during
// synthesis and ignored; anything else is a real failure.
func (g *Gateway) OnError(err error) {
	if IsAborted(err) {
		g.log.Debug().Msg("Capture aborted intentionally (during synthesis)")
		return
	}

	g.log.Error().Err(err).Msg("Capture failed")
	g.state.StopListening()

	g.mu.Lock()
	onFailure := g.onFailure
	g.mu.Unlock()
	if onFailure != nil {
		onFailure(err)
	}
}
