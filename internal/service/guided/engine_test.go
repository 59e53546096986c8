package guided

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"voice-session-orchestrator/internal/models"
)

type fakeSpeaker struct {
	spoken  []string
	cancels int
}

func (s *fakeSpeaker) Speak(text string)  { s.spoken = append(s.spoken, text) }
func (s *fakeSpeaker) CancelSpeech()      { s.cancels++ }
func (s *fakeSpeaker) last() string {
	if len(s.spoken) == 0 {
		return ""
	}
	return s.spoken[len(s.spoken)-1]
}

type fakeLookup struct {
	mu      sync.Mutex
	result  models.LookupResult
	err     error
	queries []string
}

func (f *fakeLookup) Search(ctx context.Context, q string) (*models.LookupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	r := f.result
	r.Query = q
	return &r, nil
}

type taskQueue chan func()

func (q taskQueue) post(fn func()) { q <- fn }

func (q taskQueue) runOne(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q:
		fn()
	case <-time.After(time.Second):
		t.Fatal("no continuation posted")
	}
}

type captureLog struct {
	fields []FieldID
	values []string
}

func (c *captureLog) capture(field FieldID, value string) {
	c.fields = append(c.fields, field)
	c.values = append(c.values, value)
}

func newTestEngine() (*Engine, *fakeSpeaker, *fakeLookup, taskQueue, *captureLog) {
	speaker := &fakeSpeaker{}
	lookup := &fakeLookup{}
	queue := make(taskQueue, 8)
	captured := &captureLog{}
	engine := NewEngine(speaker, lookup, queue.post, captured.capture)
	return engine, speaker, lookup, queue, captured
}

func TestEngine_StartPromptsFirstStep(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	if !engine.Active() {
		t.Fatal("expected active flow")
	}
	if len(speaker.spoken) < 2 {
		t.Fatalf("expected intro and first prompt, got %v", speaker.spoken)
	}
	if speaker.last() != "What is the opportunity name?" {
		t.Errorf("unexpected first prompt: %q", speaker.last())
	}
}

func TestEngine_CodeStepAdvances(t *testing.T) {
	engine, speaker, _, _, captured := newTestEngine()
	engine.Start()

	engine.Process("acme expansion deal")

	if got := engine.Collected()[FieldOpportunityName]; got != "Acme Expansion Deal" {
		t.Errorf("expected title-cased name, got %q", got)
	}
	if len(captured.fields) != 1 || captured.fields[0] != FieldOpportunityName {
		t.Errorf("expected capture callback for name, got %v", captured.fields)
	}
	if speaker.last() != "What is the account ID or account name?" {
		t.Errorf("expected account prompt, got %q", speaker.last())
	}
}

func TestEngine_NameValidatorReprompts(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	engine.Process("ab")

	if engine.Snapshot().StepIndex != 0 {
		t.Error("validation failure must not advance")
	}
	if !strings.Contains(speaker.last(), "too short") {
		t.Errorf("expected validator message, got %q", speaker.last())
	}
}

func TestEngine_BackAtFirstStepIsNoop(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	before := engine.Snapshot()
	engine.Process("back")
	after := engine.Snapshot()

	if after.StepIndex != before.StepIndex {
		t.Errorf("stepIndex changed: %d -> %d", before.StepIndex, after.StepIndex)
	}
	if speaker.last() != "You are already at the first field." {
		t.Errorf("expected notice, got %q", speaker.last())
	}
}

func TestEngine_AccountDisambiguation(t *testing.T) {
	engine, speaker, lookup, queue, _ := newTestEngine()
	lookup.result = models.LookupResult{Accounts: []models.Choice{
		{ID: "ACC1", Label: "Acme Corp"},
		{ID: "ACC2", Label: "Acme West"},
		{ID: "ACC3", Label: "Acme North"},
	}}

	engine.Start()
	engine.Process("Neon Signs Renewal") // name
	engine.Process("acme")               // account lookup
	queue.runOne(t)

	if !strings.Contains(speaker.last(), "Option 1: ACC1, Acme Corp") {
		t.Fatalf("expected candidate list, got %q", speaker.last())
	}
	if !engine.Snapshot().AwaitingChoice {
		t.Fatal("expected awaiting choice")
	}

	// Recognizer split "option two" across two utterances.
	engine.Process("option")
	engine.Process("two")

	if got := engine.Collected()[FieldAccountID]; got != "ACC2" {
		t.Errorf("expected ACC2 selected, got %q", got)
	}
	if speaker.spoken[len(speaker.spoken)-2] != "Account selected." {
		t.Errorf("expected confirmation, got %v", speaker.spoken[len(speaker.spoken)-2])
	}
	if engine.Snapshot().Field != string(FieldPrimaryContactID) {
		t.Errorf("expected advance to contact step, got %s", engine.Snapshot().Field)
	}
}

func TestEngine_OutOfRangeChoiceReprompts(t *testing.T) {
	engine, speaker, lookup, queue, _ := newTestEngine()
	lookup.result = models.LookupResult{Accounts: []models.Choice{
		{ID: "ACC1", Label: "Acme Corp"},
		{ID: "ACC2", Label: "Acme West"},
		{ID: "ACC3", Label: "Acme North"},
	}}

	engine.Start()
	engine.Process("Neon Signs Renewal")
	engine.Process("acme")
	queue.runOne(t)

	engine.Process("9")

	if _, ok := engine.Collected()[FieldAccountID]; ok {
		t.Error("out-of-range number must not select")
	}
	if !engine.Snapshot().AwaitingChoice {
		t.Error("must keep awaiting a valid choice")
	}
	if !strings.Contains(speaker.last(), "option number") {
		t.Errorf("expected reprompt, got %q", speaker.last())
	}
}

func TestEngine_SingleAccountAutoSelects(t *testing.T) {
	engine, _, lookup, queue, _ := newTestEngine()
	lookup.result = models.LookupResult{Accounts: []models.Choice{{ID: "ACC7", Label: "Solo Corp"}}}

	engine.Start()
	engine.Process("Neon Signs Renewal")
	engine.Process("solo")
	queue.runOne(t)

	if got := engine.Collected()[FieldAccountID]; got != "ACC7" {
		t.Errorf("expected auto-select, got %q", got)
	}
	if engine.Snapshot().AwaitingChoice {
		t.Error("no disambiguation expected for a single candidate")
	}
}

func TestEngine_EmptyLookupReprompts(t *testing.T) {
	engine, speaker, _, queue, _ := newTestEngine()

	engine.Start()
	engine.Process("Neon Signs Renewal")
	engine.Process("nonexistent")
	queue.runOne(t)

	if !strings.Contains(speaker.last(), "No account found") {
		t.Errorf("expected no-account reprompt, got %q", speaker.last())
	}
	if engine.Snapshot().Field != string(FieldAccountID) {
		t.Error("must stay on account step")
	}
}

func TestEngine_StaleLookupDiscarded(t *testing.T) {
	engine, _, lookup, queue, _ := newTestEngine()
	lookup.result = models.LookupResult{Accounts: []models.Choice{{ID: "ACC1", Label: "Acme Corp"}}}

	engine.Start()
	engine.Process("Neon Signs Renewal")
	engine.Process("acme")

	// User moved on before the lookup resolved.
	engine.Process("edit stage")
	queue.runOne(t)

	if _, ok := engine.Collected()[FieldAccountID]; ok {
		t.Error("stale lookup result must be discarded")
	}
	if engine.Snapshot().Field != string(FieldStage) {
		t.Errorf("expected stage step, got %s", engine.Snapshot().Field)
	}
}

func TestEngine_DropdownByOptionNumber(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	engine.Process("edit stage")
	if !strings.Contains(speaker.last(), "What is the stage?") {
		t.Fatalf("expected stage prompt with preview, got %q", speaker.last())
	}

	engine.Process("option two")
	if got := engine.Collected()[FieldStage]; got != "Qualification" {
		t.Errorf("expected Qualification, got %q", got)
	}
}

func TestEngine_DropdownNoMatchReprompts(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	engine.Process("edit status")
	engine.Process("purple")

	if _, ok := engine.Collected()[FieldStatus]; ok {
		t.Error("no match must not store")
	}
	if !strings.Contains(speaker.last(), "Some options are: Open, Working, Closed") {
		t.Errorf("expected option sample in reprompt, got %q", speaker.last())
	}
}

func TestEngine_NumberEditRejectsNonNumeric(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	engine.Process("edit amount")
	engine.Process("hello there")

	if _, ok := engine.Collected()[FieldAmount]; ok {
		t.Error("non-numeric input must not store during edit")
	}
	if !strings.Contains(speaker.last(), "numeric value") {
		t.Errorf("expected numeric guidance, got %q", speaker.last())
	}

	engine.Process("fifty k")
	if got := engine.Collected()[FieldAmount]; got != "50000" {
		t.Errorf("expected 50000, got %q", got)
	}
}

func TestEngine_AmountValidatorRejectsZero(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	engine.Process("edit amount")
	engine.Process("zero")

	if _, ok := engine.Collected()[FieldAmount]; ok {
		t.Error("zero amount must be rejected")
	}
	if !strings.Contains(speaker.last(), "positive number") {
		t.Errorf("expected validator message, got %q", speaker.last())
	}
}

func TestEngine_EditUnknownFieldPrompts(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	before := engine.Snapshot().StepIndex
	engine.Process("edit zodiac sign")

	if engine.Snapshot().StepIndex != before {
		t.Error("unknown edit target must not move the step")
	}
	if !strings.Contains(speaker.last(), "could not find that field") {
		t.Errorf("expected field list prompt, got %q", speaker.last())
	}
}

func TestEngine_StopCommandDeactivates(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	engine.Process("stop opportunity")

	if engine.Active() {
		t.Error("expected inactive flow")
	}
	if speaker.last() != "Okay, stopping opportunity creation." {
		t.Errorf("unexpected farewell: %q", speaker.last())
	}
}

func TestEngine_SubmitInvokesCaptureSentinel(t *testing.T) {
	engine, _, _, _, captured := newTestEngine()
	engine.Start()

	engine.Process("submit opportunity")

	if len(captured.fields) != 1 || captured.fields[0] != SubmitField {
		t.Errorf("expected submit sentinel, got %v", captured.fields)
	}
}

func TestEngine_HardStopCancelsSpeech(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	engine.HardStop()

	if engine.Active() {
		t.Error("expected inactive flow")
	}
	if speaker.cancels != 1 {
		t.Errorf("expected speech cancelled, got %d", speaker.cancels)
	}
	if engine.Snapshot().StepIndex != 0 {
		t.Error("expected step index reset")
	}
}

func TestEngine_RepeatReasksCurrentStep(t *testing.T) {
	engine, speaker, _, _, _ := newTestEngine()
	engine.Start()

	engine.Process("repeat")

	if speaker.last() != "What is the opportunity name?" {
		t.Errorf("expected current prompt repeated, got %q", speaker.last())
	}
}
