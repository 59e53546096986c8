package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-session-orchestrator/internal/events"
	"voice-session-orchestrator/internal/models"
	"voice-session-orchestrator/internal/service/arbiter"
	"voice-session-orchestrator/internal/service/guided"
	"voice-session-orchestrator/internal/service/mode"
	"voice-session-orchestrator/internal/service/nlp"
	"voice-session-orchestrator/internal/service/session"
	"voice-session-orchestrator/internal/service/speech"
	"voice-session-orchestrator/internal/service/speech/mock"
)

type emptyLookup struct{}

func (emptyLookup) Search(ctx context.Context, q string) (*models.LookupResult, error) {
	return &models.LookupResult{Query: q}, nil
}

type env struct {
	sess    *session.Session
	capture *mock.Capture
	modes   *mode.Context
	bus     *events.Bus
	results <-chan models.Event
}

func newEnv(t *testing.T) *env {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/voice":
			json.NewEncoder(w).Encode(map[string]any{
				"intent":   "search_products",
				"numFound": 3,
				"products": []map[string]any{{"id": "P1"}},
				"speech":   "I found 3 red drills.",
			})
		case "/api/orders/voice":
			json.NewEncoder(w).Encode(map[string]any{"intent": "filter_orders", "numFound": 2})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(backend.Close)

	loop := session.NewLoop()
	modes := mode.New()
	nav := arbiter.NewMemoryNavigator()
	bus := events.NewBus(nil)
	capture := mock.NewCapture()
	output := mock.NewOutput()
	gw := speech.NewGateway("it-1", capture, output, speech.SpeakOptions{}, 5*time.Millisecond)

	flow := guided.NewEngine(gw, emptyLookup{}, loop.Post, func(guided.FieldID, string) {})
	products := nlp.NewProductClient(backend.URL, time.Second)
	orders := nlp.NewOrderClient(backend.URL, time.Second)
	arb := arbiter.New(modes, flow, gw, products, orders, bus, nav, loop.Post)
	sess := session.New("it-1", loop, gw, arb, modes, flow, nav)

	results, cancelSub := bus.Subscribe()
	t.Cleanup(cancelSub)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := sess.Start(ctx); err != nil {
		t.Fatalf("start session: %v", err)
	}
	t.Cleanup(func() { sess.Close() })

	return &env{sess: sess, capture: capture, modes: modes, bus: bus, results: results}
}

func (e *env) nextEvent(t *testing.T) models.Event {
	t.Helper()
	select {
	case ev := <-e.results:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no bus event")
		return models.Event{}
	}
}

func TestSession_ProductUtteranceEndToEnd(t *testing.T) {
	e := newEnv(t)

	e.capture.Emit("show me red drills")

	reset := e.nextEvent(t)
	if reset.Target != models.TargetProducts || reset.Product.Intent != models.IntentReset {
		t.Fatalf("expected reset event first, got %+v", reset)
	}

	result := e.nextEvent(t)
	if result.Target != models.TargetProducts || result.Product.Intent != "search_products" {
		t.Fatalf("expected product result, got %+v", result)
	}
	if result.Product.NumFound != 3 {
		t.Errorf("expected 3 found, got %d", result.Product.NumFound)
	}
	if e.modes.Get() != mode.Products {
		t.Errorf("mode = %v, want products", e.modes.Get())
	}
}

func TestSession_OppCodeStartsGuidedFlow(t *testing.T) {
	e := newEnv(t)

	e.capture.Emit("opp 1044")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.modes.Get() == mode.Opportunity {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	snap, err := e.sess.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Mode != "opportunity" {
		t.Errorf("mode = %q, want opportunity", snap.Mode)
	}
	if !snap.Guided.Active {
		t.Error("expected guided flow active")
	}
	if snap.Guided.StepIndex != 0 {
		t.Errorf("expected first step, got %d", snap.Guided.StepIndex)
	}
}

func TestSession_InjectFollowsSamePath(t *testing.T) {
	e := newEnv(t)

	e.sess.Inject("any pending payment")

	ev := e.nextEvent(t)
	if ev.Target != models.TargetOrders {
		t.Fatalf("expected orders event, got %+v", ev)
	}
	if e.modes.Get() != mode.Orders {
		t.Errorf("mode = %v, want orders", e.modes.Get())
	}
}
