// Package guided implements the slot-filling dialogue for opportunity
// creation: a fixed ten-step sequence with global commands, lookup-backed
// disambiguation and spoken-number capture. Once active, the engine owns the
// utterance stream exclusively until stop, submit or hard stop.
package guided

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldID names one opportunity form field.
type FieldID string

const (
	FieldOpportunityName  FieldID = "opportunity_name"
	FieldAccountID        FieldID = "account_id"
	FieldPrimaryContactID FieldID = "primary_contact_id"
	FieldOwnerID          FieldID = "owner_id"
	FieldStage            FieldID = "stage"
	FieldStatus           FieldID = "status"
	FieldAmount           FieldID = "amount"
	FieldCurrency         FieldID = "currency"
	FieldProbability      FieldID = "probability"
	FieldExpectedRevenue  FieldID = "expected_revenue"
)

// SubmitField is the sentinel passed to the capture callback when the user
// says "submit opportunity". The engine never performs the remote write.
const SubmitField FieldID = "__submit__"

// StepKind selects the capture strategy for a step.
type StepKind int

const (
	KindCode StepKind = iota
	KindAccount
	KindContact
	KindDropdown
	KindNumber
	KindText
)

// Step is one slot of the guided form. The sequence is fixed at engine
// construction and immutable during a session.
type Step struct {
	Field    FieldID
	Prompt   string
	Kind     StepKind
	Options  []string
	Validate func(value string) error
}

var stageOptions = []string{
	"Prospecting",
	"Qualification",
	"Needs Analysis",
	"Value Proposition",
	"Proposal/Price Quote",
	"Negotiation/Review",
	"Closed Won",
	"Closed Lost",
}

var statusOptions = []string{"Open", "Working", "Closed"}
var currencyOptions = []string{"USD", "CAD"}

// DefaultSteps returns the opportunity form sequence.
func DefaultSteps() []Step {
	return []Step{
		{Field: FieldOpportunityName, Prompt: "What is the opportunity name?", Kind: KindCode, Validate: validateName},
		{Field: FieldAccountID, Prompt: "What is the account ID or account name?", Kind: KindAccount},
		{Field: FieldPrimaryContactID, Prompt: "Who is the primary contact?", Kind: KindContact},
		{Field: FieldOwnerID, Prompt: "Who owns this opportunity?", Kind: KindCode},
		{Field: FieldStage, Prompt: "What is the stage?", Kind: KindDropdown, Options: stageOptions},
		{Field: FieldStatus, Prompt: "What is the status?", Kind: KindDropdown, Options: statusOptions},
		{Field: FieldAmount, Prompt: "What is the amount?", Kind: KindNumber, Validate: validateAmount},
		{Field: FieldCurrency, Prompt: "What is the currency?", Kind: KindDropdown, Options: currencyOptions},
		{Field: FieldProbability, Prompt: "What is the probability percentage?", Kind: KindNumber},
		{Field: FieldExpectedRevenue, Prompt: "What is the expected revenue?", Kind: KindNumber},
	}
}

func validateName(value string) error {
	if len(value) < 3 {
		return fmt.Errorf("opportunity name is too short")
	}
	return nil
}

var nonNumericRE = regexp.MustCompile(`[^0-9.\-]`)

func validateAmount(value string) error {
	n, ok := parseFloat(nonNumericRE.ReplaceAllString(value, ""))
	if !ok || n <= 0 {
		return fmt.Errorf("amount must be a positive number")
	}
	return nil
}

// prettyFieldName returns the spoken label for a field.
func prettyFieldName(field FieldID) string {
	switch field {
	case FieldOpportunityName:
		return "opportunity name"
	case FieldAccountID:
		return "account"
	case FieldPrimaryContactID:
		return "primary contact"
	case FieldOwnerID:
		return "owner"
	case FieldExpectedRevenue:
		return "expected revenue"
	default:
		return strings.ReplaceAll(string(field), "_", " ")
	}
}

// mapFieldFromPhrase resolves an "edit <phrase>" target by keyword
// containment.
func mapFieldFromPhrase(phrase string) (FieldID, bool) {
	p := strings.ToLower(phrase)
	switch {
	case strings.Contains(p, "opportunity") && strings.Contains(p, "name"):
		return FieldOpportunityName, true
	case strings.Contains(p, "name") && !strings.Contains(p, "account") && !strings.Contains(p, "contact"):
		return FieldOpportunityName, true
	case strings.Contains(p, "account"):
		return FieldAccountID, true
	case strings.Contains(p, "contact"):
		return FieldPrimaryContactID, true
	case strings.Contains(p, "owner"):
		return FieldOwnerID, true
	case strings.Contains(p, "stage"):
		return FieldStage, true
	case strings.Contains(p, "status"):
		return FieldStatus, true
	case strings.Contains(p, "amount"):
		return FieldAmount, true
	case strings.Contains(p, "currency"):
		return FieldCurrency, true
	case strings.Contains(p, "probability") || strings.Contains(p, "percent"):
		return FieldProbability, true
	case strings.Contains(p, "expected") && strings.Contains(p, "revenue"):
		return FieldExpectedRevenue, true
	}
	return "", false
}

var (
	hasDigitRE = regexp.MustCompile(`\d`)
	spacesRE   = regexp.MustCompile(`\s+`)
	codeRE     = regexp.MustCompile(`^[A-Z]{2,5}\d{1,6}$`)
	trailPunct = regexp.MustCompile(`[.,!?]+$`)
)

// normalizeCode compacts short alphanumeric codes (strip whitespace, upper
// case) and title-cases everything else.
func normalizeCode(raw string) string {
	v := strings.TrimSpace(raw)
	compact := spacesRE.ReplaceAllString(v, "")
	if hasDigitRE.MatchString(v) && len(compact) <= 10 {
		return strings.ToUpper(compact)
	}
	return titleCase(v)
}

// normalizeText title-cases each word and strips trailing punctuation.
func normalizeText(raw string) string {
	return trailPunct.ReplaceAllString(titleCase(strings.TrimSpace(raw)), "")
}

func titleCase(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// spellForTTS spaces out a code so synthesis reads it character by character.
func spellForTTS(code string) string {
	return strings.Join(strings.Split(code, ""), " ")
}

// spokenValue returns how a captured code value is read back: codes are
// spelled out, plain text is spoken as-is.
func spokenValue(value string) string {
	if codeRE.MatchString(value) {
		return spellForTTS(value)
	}
	return value
}
