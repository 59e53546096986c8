package guided

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"voice-session-orchestrator/internal/models"
	"voice-session-orchestrator/internal/observability/logging"
	"voice-session-orchestrator/internal/observability/metrics"
)

// Speaker is the subset of the speech gateway the engine prompts through.
type Speaker interface {
	Speak(text string)
	CancelSpeech()
}

// Lookup resolves a spoken name to ranked account and contact candidates.
type Lookup interface {
	Search(ctx context.Context, query string) (*models.LookupResult, error)
}

// CaptureFunc receives every captured field value. A SubmitField call with an
// empty value means "submit now"; the collaborator performs the remote write.
type CaptureFunc func(field FieldID, value string)

// Snapshot is a read-only view of the flow state for the session endpoint.
type Snapshot struct {
	Active         bool              `json:"active"`
	StepIndex      int               `json:"stepIndex"`
	Field          string            `json:"field,omitempty"`
	AwaitingChoice bool              `json:"awaitingChoice"`
	Collected      map[string]string `json:"collected"`
}

// lookupToken identifies the dialogue position a lookup was issued from. A
// response whose token no longer matches is stale and discarded.
type lookupToken struct {
	index int
	field FieldID
	seq   int
}

// Engine is the guided dialogue state machine. All methods must be called
// from the session loop goroutine; lookup continuations are posted back onto
// it, never applied from the network goroutine.
type Engine struct {
	steps     []Step
	speaker   Speaker
	lookup    Lookup
	post      func(func())
	onCapture CaptureFunc

	active    bool
	index     int
	collected map[FieldID]string

	res            resolver
	awaitingChoice bool
	choiceField    FieldID
	choices        []models.Choice
	editingNumber  bool
	lookupSeq      int

	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewEngine creates an inactive engine over the default step sequence. post
// schedules a continuation onto the session loop; pass nil to run
// continuations inline (tests).
func NewEngine(speaker Speaker, lookup Lookup, post func(func()), onCapture CaptureFunc) *Engine {
	if post == nil {
		post = func(fn func()) { fn() }
	}
	return &Engine{
		steps:     DefaultSteps(),
		speaker:   speaker,
		lookup:    lookup,
		post:      post,
		onCapture: onCapture,
		collected: make(map[FieldID]string),
		metrics:   metrics.DefaultMetrics,
		log:       logging.WithComponent("guided-dialogue"),
	}
}

// Active reports whether the flow currently owns the utterance stream.
func (e *Engine) Active() bool {
	return e.active
}

// Collected returns a copy of the captured field values.
func (e *Engine) Collected() map[FieldID]string {
	out := make(map[FieldID]string, len(e.collected))
	for k, v := range e.collected {
		out[k] = v
	}
	return out
}

// Snapshot returns the current flow state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Active:         e.active,
		StepIndex:      e.index,
		AwaitingChoice: e.awaitingChoice,
		Collected:      make(map[string]string, len(e.collected)),
	}
	if e.active && e.index < len(e.steps) {
		s.Field = string(e.steps[e.index].Field)
	}
	for k, v := range e.collected {
		s.Collected[string(k)] = v
	}
	return s
}

// Start activates the flow at the first step.
func (e *Engine) Start() {
	e.active = true
	e.index = 0
	e.collected = make(map[FieldID]string)
	e.resetChoiceState()
	e.editingNumber = false

	e.metrics.GuidedFlowsStarted.Inc()
	e.log.Info().Msg("Guided opportunity flow started")

	e.speaker.Speak("Sure. Let us create a new opportunity.")
	e.askCurrentStep()
}

// Stop ends the flow with a spoken farewell.
func (e *Engine) Stop(message string) {
	e.speaker.Speak(message)
	e.deactivate("stop_command")
}

// Finish ends the flow after a successful submission.
func (e *Engine) Finish(message string) {
	e.speaker.Speak(message)
	e.deactivate("submitted")
}

// HardStop ends the flow immediately: no farewell, pending speech cancelled.
// Used when the user leaves the hosting view.
func (e *Engine) HardStop() {
	e.speaker.CancelSpeech()
	e.index = 0
	e.deactivate("hard_stop")
}

func (e *Engine) deactivate(cause string) {
	if !e.active {
		return
	}
	e.active = false
	e.resetChoiceState()
	e.editingNumber = false
	e.metrics.GuidedFlowsStopped.WithLabelValues(cause).Inc()
	e.log.Info().Str("cause", cause).Msg("Guided opportunity flow stopped")
}

// Process handles one utterance. Global commands run before step parsing.
func (e *Engine) Process(raw string) {
	if !e.active {
		return
	}

	u := strings.ToLower(strings.TrimSpace(raw))
	if u == "" {
		e.speaker.Speak("I did not catch anything. Please say it again.")
		return
	}

	if e.handleGlobalCommands(u) {
		return
	}
	e.captureAnswer(raw, u)
}

var editCommandRE = regexp.MustCompile(`^(edit|change|update)\s+(.+)$`)

func (e *Engine) handleGlobalCommands(u string) bool {
	switch u {
	case "stop opportunity":
		e.Stop("Okay, stopping opportunity creation.")
		return true
	case "repeat":
		e.askCurrentStep()
		return true
	case "back", "go back", "previous":
		e.goBack()
		return true
	case "review":
		e.speaker.Speak("Here is a quick review of the opportunity. You can say edit opportunity name, edit account, edit stage, edit probability, or say submit opportunity when you are happy.")
		return true
	case "submit opportunity":
		e.speaker.Speak("Submitting the opportunity.")
		if e.onCapture != nil {
			e.onCapture(SubmitField, "")
		}
		return true
	}

	if m := editCommandRE.FindStringSubmatch(u); m != nil {
		field, ok := mapFieldFromPhrase(strings.TrimSpace(m[2]))
		if !ok {
			e.speaker.Speak("I could not find that field. You can say edit opportunity name, edit account, edit stage, edit status, edit amount, edit probability or edit currency.")
			return true
		}
		e.jumpToField(field)
		return true
	}

	return false
}

func (e *Engine) goBack() {
	if e.index == 0 {
		e.speaker.Speak("You are already at the first field.")
		return
	}
	e.index--
	e.resetChoiceState()
	e.askCurrentStep()
}

func (e *Engine) jumpToField(field FieldID) {
	idx := -1
	for i, s := range e.steps {
		if s.Field == field {
			idx = i
			break
		}
	}
	if idx == -1 {
		e.speaker.Speak("I could not find that field in the form.")
		return
	}

	e.index = idx
	e.resetChoiceState()
	e.editingNumber = e.steps[idx].Kind == KindNumber

	e.speaker.Speak(fmt.Sprintf("Okay, let us update %s.", prettyFieldName(field)))
	e.askCurrentStep()
}

func (e *Engine) captureAnswer(raw, u string) {
	step := e.steps[e.index]
	switch step.Kind {
	case KindCode:
		e.handleCodeStep(step, raw)
	case KindAccount:
		e.handleLookupStep(step, raw, u)
	case KindContact:
		e.handleLookupStep(step, raw, u)
	case KindDropdown:
		e.handleDropdownStep(step, raw, u)
	case KindNumber:
		e.handleNumberStep(step, raw, u)
	default:
		e.handleTextStep(step, raw)
	}
}

func (e *Engine) handleCodeStep(step Step, raw string) {
	normalized := normalizeCode(raw)

	if step.Validate != nil {
		if err := step.Validate(normalized); err != nil {
			e.reprompt(capitalize(err.Error()) + " Please say it again.")
			return
		}
	}

	e.setField(step.Field, normalized)
	e.speaker.Speak(fmt.Sprintf("Got it. %s is %s.", capitalize(prettyFieldName(step.Field)), spokenValue(normalized)))
	e.nextStep()
}

func (e *Engine) handleLookupStep(step Step, raw, u string) {
	if e.awaitingChoice && e.choiceField == step.Field {
		e.resolveChoice(step, raw, u)
		return
	}

	e.lookupSeq++
	token := lookupToken{index: e.index, field: step.Field, seq: e.lookupSeq}

	go func() {
		result, err := e.lookup.Search(context.Background(), raw)
		e.post(func() { e.finishLookup(token, step, result, err) })
	}()
}

func (e *Engine) resolveChoice(step Step, raw, u string) {
	if isOptionPrefix(u) {
		e.res.pendingPrefix = true
		return
	}

	choice, ok := e.res.PickChoice(raw, e.choices)
	if !ok {
		if step.Kind == KindAccount {
			e.reprompt("Please say the option number, or the account name or ID.")
		} else {
			e.reprompt("I did not quite catch that. Please say the option number, or the contact name or ID.")
		}
		return
	}

	e.setField(step.Field, choice.ID)
	if step.Kind == KindAccount {
		e.speaker.Speak("Account selected.")
	} else {
		e.speaker.Speak(fmt.Sprintf("Okay. Primary contact is %s, %s.", choice.ID, choice.Label))
	}
	e.resetChoiceState()
	e.nextStep()
}

// finishLookup applies a lookup result, unless the dialogue has already
// moved past the step that issued it.
func (e *Engine) finishLookup(token lookupToken, step Step, result *models.LookupResult, err error) {
	if !e.active || token.index != e.index || token.seq != e.lookupSeq {
		e.metrics.StaleLookupsDropped.Inc()
		e.log.Debug().Str("field", string(token.field)).Msg("Stale lookup response discarded")
		return
	}

	if err != nil {
		e.log.Warn().Err(err).Str("field", string(step.Field)).Msg("Lookup failed")
		if step.Kind == KindAccount {
			e.speaker.Speak("Account search failed. Please try again.")
		} else {
			e.speaker.Speak("I had trouble searching contacts. Please say the contact again.")
		}
		return
	}

	candidates := result.Accounts
	if step.Kind == KindContact {
		candidates = result.Contacts
	}

	if len(candidates) == 0 {
		if step.Kind == KindAccount {
			e.reprompt("No account found. Please say the account ID or name again.")
		} else {
			e.reprompt("I could not find any contacts for that. Please say the contact name or ID again.")
		}
		return
	}

	if len(candidates) == 1 {
		only := candidates[0]
		e.setField(step.Field, only.ID)
		e.speaker.Speak(fmt.Sprintf("Got it. %s is %s, %s.", capitalize(prettyFieldName(step.Field)), only.ID, only.Label))
		e.nextStep()
		return
	}

	top := candidates
	if len(top) > 5 {
		top = top[:5]
	}
	parts := make([]string, len(top))
	for i, c := range top {
		parts[i] = fmt.Sprintf("Option %d: %s, %s", i+1, c.ID, c.Label)
	}

	var msg string
	if step.Kind == KindContact {
		msg = fmt.Sprintf("I found %d contacts. %s. Please say an option number, like option 1, or say the contact name or ID.", len(candidates), strings.Join(parts, ". "))
	} else {
		msg = strings.Join(parts, ". ") + ". Please say an option number, or say the account name or ID."
	}

	e.choices = top
	e.choiceField = step.Field
	e.awaitingChoice = true
	e.metrics.DisambiguationRounds.Inc()
	e.speaker.Speak(msg)
}

func (e *Engine) handleDropdownStep(step Step, raw, u string) {
	if isOptionPrefix(u) {
		e.res.pendingPrefix = true
		e.speaker.Speak("I heard option. Please say the option number, like option one or option two, or say the option name.")
		return
	}

	match, ok := e.res.MatchOption(step.Options, raw)
	if !ok {
		label := prettyFieldName(step.Field)
		short := strings.Join(previewOptions(step.Options, 6), ", ")
		e.reprompt(fmt.Sprintf("I did not quite catch that. Please say a valid option for %s, like a number or the option name. Some options are: %s.", label, short))
		return
	}

	e.setField(step.Field, match)
	e.speaker.Speak(fmt.Sprintf("Got it. %s is %s.", capitalize(prettyFieldName(step.Field)), match))
	e.nextStep()
}

func (e *Engine) handleNumberStep(step Step, raw, u string) {
	if e.editingNumber && !NumberLike(u) {
		e.reprompt("Please provide only a numeric value. For example: 5000, 50 thousand, 50 k, or a number like seven.")
		return
	}

	parsed, ok := ParseSpokenNumber(raw)
	if !ok {
		e.reprompt("I did not understand that number. Please say it again clearly.")
		return
	}

	value := formatNumber(parsed)
	if step.Validate != nil {
		if err := step.Validate(value); err != nil {
			e.reprompt(capitalize(err.Error()) + " Please say it again.")
			return
		}
	}

	e.setField(step.Field, value)
	e.speaker.Speak(fmt.Sprintf("Got it. %s is %s.", capitalize(prettyFieldName(step.Field)), value))
	e.editingNumber = false
	e.nextStep()
}

func (e *Engine) handleTextStep(step Step, raw string) {
	clean := normalizeText(raw)

	if step.Validate != nil {
		if err := step.Validate(clean); err != nil {
			e.reprompt(capitalize(err.Error()) + " Please say it again.")
			return
		}
	}

	e.setField(step.Field, clean)
	e.speaker.Speak(fmt.Sprintf("Got it. %s is %s.", capitalize(prettyFieldName(step.Field)), clean))
	e.nextStep()
}

func (e *Engine) askCurrentStep() {
	step := e.steps[e.index]
	if step.Kind == KindDropdown && len(step.Options) > 0 {
		preview := strings.Join(previewOptions(step.Options, 4), ", ")
		e.speaker.Speak(fmt.Sprintf("%s For example: %s. You can say option number or the option name.", step.Prompt, preview))
		return
	}
	e.speaker.Speak(step.Prompt)
}

func (e *Engine) nextStep() {
	if e.index+1 < len(e.steps) {
		e.index++
		e.resetChoiceState()
		e.metrics.GuidedStepsAdvanced.Inc()
		e.askCurrentStep()
		return
	}
	e.speaker.Speak("I have collected all required fields. You can say review to hear a summary, or say submit opportunity.")
}

func (e *Engine) setField(field FieldID, value string) {
	e.collected[field] = value
	e.log.Debug().Str("field", string(field)).Str("value", value).Msg("Field captured")
	if e.onCapture != nil {
		e.onCapture(field, value)
	}
}

func (e *Engine) resetChoiceState() {
	e.awaitingChoice = false
	e.choiceField = ""
	e.choices = nil
	e.res.reset()
}

func (e *Engine) reprompt(message string) {
	e.metrics.GuidedReprompts.Inc()
	e.speaker.Speak(message)
}

func previewOptions(options []string, n int) []string {
	if len(options) < n {
		n = len(options)
	}
	return options[:n]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
