// Package journey classifies a single utterance into the domain journey it
// belongs to. Classification is pure and stateless: it is recomputed per
// utterance and is independent of the currently active mode.
package journey

import (
	"regexp"
	"strings"

	"voice-session-orchestrator/internal/service/normalize"
)

// Journey is the per-utterance domain classification.
type Journey string

const (
	Orders      Journey = "orders"
	Products    Journey = "products"
	Opportunity Journey = "opportunity"
	OppView     Journey = "opp_view"
	OppCreate   Journey = "opp_create"
	Other       Journey = "other"
)

var (
	accountCodeRE = regexp.MustCompile(`\b(acc|account)\s*\d+`)
	oppCodeRE     = regexp.MustCompile(`\bopp?\s*\d+\b`)
)

// Rule order matters: order keywords are checked before product keywords,
// which are checked before the generic opportunity phrases. First match wins.
var orderWords = []string{"order", "payment", "pending", "status", "shipment", "invoice number"}

var productWords = []string{"product", "catalog", "brand", "color", "material", "item", "find", "show me"}

// Classify maps utterance text to a candidate journey. Case-insensitive
// substring and pattern matching over a fixed, ordered rule list.
func Classify(text string) Journey {
	u := strings.ToLower(text)

	for _, w := range orderWords {
		if strings.Contains(u, w) {
			return Orders
		}
	}
	if accountCodeRE.MatchString(u) {
		return Orders
	}

	// Opportunity by code, e.g. "opp 1044" or "op 1044". Spoken digit words
	// are collapsed first so "op one zero four four" also matches.
	if oppCodeRE.MatchString(u) || oppCodeRE.MatchString(strings.ToLower(normalize.Spoken(u))) {
		return Opportunity
	}

	for _, w := range productWords {
		if strings.Contains(u, w) {
			return Products
		}
	}

	if strings.Contains(u, "start opportunity") || strings.Contains(u, "stop opportunity") {
		return Opportunity
	}

	if strings.Contains(u, "go to opportunities view") ||
		strings.Contains(u, "view opportunities") ||
		strings.Contains(u, "view opportunity") {
		return OppView
	}

	if strings.Contains(u, "go to opportunities create") || strings.Contains(u, "create opportunity") {
		return OppCreate
	}

	return Other
}
