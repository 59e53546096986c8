package speech_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voice-session-orchestrator/internal/models"
	"voice-session-orchestrator/internal/service/speech"
	"voice-session-orchestrator/internal/service/speech/mock"
)

type sinkRecorder struct {
	mu   sync.Mutex
	utts []models.Utterance
}

func (r *sinkRecorder) record(u models.Utterance) {
	r.mu.Lock()
	r.utts = append(r.utts, u)
	r.mu.Unlock()
}

func (r *sinkRecorder) all() []models.Utterance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Utterance, len(r.utts))
	copy(out, r.utts)
	return out
}

func newTestGateway(t *testing.T) (*speech.Gateway, *mock.Capture, *mock.Output, *sinkRecorder) {
	t.Helper()
	capture := mock.NewCapture()
	output := mock.NewOutput()
	gw := speech.NewGateway("s1", capture, output, speech.SpeakOptions{LanguageCode: "en-US"}, 10*time.Millisecond)
	rec := &sinkRecorder{}
	gw.SetSink(rec.record)
	return gw, capture, output, rec
}

func TestGateway_DeliversTrimmedText(t *testing.T) {
	gw, capture, _, rec := newTestGateway(t)

	if err := gw.StartListening(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !gw.Listening() {
		t.Fatal("expected gateway listening")
	}

	capture.Emit("  show me red drills  ")
	capture.Emit("   ") // whitespace only: never delivered

	utts := rec.all()
	if len(utts) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utts))
	}
	if utts[0].Text != "show me red drills" {
		t.Errorf("expected trimmed text, got %q", utts[0].Text)
	}
	if utts[0].Seq != 1 {
		t.Errorf("expected seq 1, got %d", utts[0].Seq)
	}
	if utts[0].SessionID != "s1" {
		t.Errorf("expected session s1, got %q", utts[0].SessionID)
	}
}

func TestGateway_BargeInInterruptsBeforeDelivery(t *testing.T) {
	capture := mock.NewCapture()
	output := mock.NewOutput()
	gw := speech.NewGateway("s1", capture, output, speech.SpeakOptions{}, 10*time.Millisecond)

	// The sink observes the interrupt count at the moment of delivery: the
	// interrupt must have happened before the text reached downstream.
	interruptsAtDelivery := -1
	gw.SetSink(func(u models.Utterance) {
		interruptsAtDelivery = output.Interrupts()
	})

	if err := gw.StartListening(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	output.ForceSpeaking(true)
	capture.Emit("stop opportunity")

	if interruptsAtDelivery != 1 {
		t.Errorf("expected synthesis interrupted exactly once before delivery, got %d", interruptsAtDelivery)
	}
}

func TestGateway_SynthesisSuspendsAndResumesCapture(t *testing.T) {
	gw, capture, _, _ := newTestGateway(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gw.Run(ctx)

	if err := gw.StartListening(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	gw.Speak("What is the stage?")

	// Wait for the speaker goroutine to abort capture.
	deadline := time.Now().Add(time.Second)
	for capture.Started() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if capture.Started() {
		t.Fatal("expected capture aborted while synthesizing")
	}

	// Capture resumes after the configured delay.
	deadline = time.Now().Add(time.Second)
	for !capture.Started() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !capture.Started() {
		t.Fatal("expected capture resumed after synthesis")
	}
	if !gw.Listening() {
		t.Error("expected gateway listening after resume")
	}
}

func TestGateway_ExplicitStopPreventsResume(t *testing.T) {
	gw, capture, _, _ := newTestGateway(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gw.Run(ctx)

	if err := gw.StartListening(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	gw.Speak("Okay, stopping opportunity creation.")

	deadline := time.Now().Add(time.Second)
	for capture.Started() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	// Something else claimed the session lifecycle before the resume timer.
	gw.StopListening()

	time.Sleep(50 * time.Millisecond)
	if capture.Started() {
		t.Error("expected no resume after explicit stop")
	}
	if gw.Listening() {
		t.Error("expected gateway not listening")
	}
}

func TestGateway_AbortedCaptureErrorIsIgnored(t *testing.T) {
	gw, capture, _, _ := newTestGateway(t)

	var failures []error
	gw.SetFailureHandler(func(err error) { failures = append(failures, err) })

	if err := gw.StartListening(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Intentional abort: expected, not surfaced.
	_ = capture.Abort()
	if len(failures) != 0 {
		t.Errorf("expected aborted error to be ignored, got %v", failures)
	}

	// Real failure: surfaced.
	if err := gw.StartListening(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	capture.Fail(errors.New("audio device lost"))
	if len(failures) != 1 {
		t.Errorf("expected 1 real failure surfaced, got %d", len(failures))
	}
}

func TestGateway_MuteToAPI(t *testing.T) {
	gw, capture, _, rec := newTestGateway(t)

	if err := gw.StartListening(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	gw.MuteToAPI()
	if !gw.MutedToAPI() {
		t.Error("expected muted")
	}

	// Muting does not stop the stream: text still flows to the gateway.
	capture.Emit("any pending payment")
	if len(rec.all()) != 1 {
		t.Error("expected utterance delivered while muted")
	}

	gw.UnmuteToAPI()
	if gw.MutedToAPI() {
		t.Error("expected unmuted")
	}
}

func TestGateway_StartWhileListeningIsNoop(t *testing.T) {
	gw, _, _, _ := newTestGateway(t)

	ctx := context.Background()
	if err := gw.StartListening(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := gw.StartListening(ctx); err != nil {
		t.Errorf("second start should be a no-op, got %v", err)
	}
}
