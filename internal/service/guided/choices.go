package guided

import (
	"regexp"
	"strconv"
	"strings"

	"voice-session-orchestrator/internal/models"
)

// indexWords maps spoken selection tokens to 0-based candidate indices,
// including the homophones speech recognition commonly substitutes.
var indexWords = map[string]int{
	"one": 0, "won": 0, "first": 0, "1": 0,
	"two": 1, "to": 1, "too": 1, "second": 1, "2": 1,
	"three": 2, "tree": 2, "third": 2, "3": 2,
	"four": 3, "for": 3, "fourth": 3, "4": 3,
	"five": 4, "fifth": 4, "5": 4,
}

func wordToIndex(token string) (int, bool) {
	idx, ok := indexWords[token]
	return idx, ok
}

var (
	optionTokenRE = regexp.MustCompile(`option\s+(\w+)`)
	numTokenRE    = regexp.MustCompile(`\b(\d+)\b`)
)

// resolver implements the selection ladder shared by dropdown options and
// lookup candidates. The recognizer often splits "option two" into two
// utterances; the pendingPrefix flag bridges them.
//
// Rules, first match wins: prefix continuation, "option <n>", bare number
// word or digit, numeric token anywhere, exact text, containment.
type resolver struct {
	pendingPrefix bool
}

func (r *resolver) reset() {
	r.pendingPrefix = false
}

// isOptionPrefix reports whether the utterance is the bare word "option".
func isOptionPrefix(u string) bool {
	return u == "option" || u == "options"
}

// indexFor resolves u to a candidate index in [0, n). An out-of-range number
// is not a match.
func (r *resolver) indexFor(u string, n int) (int, bool) {
	if r.pendingPrefix {
		r.pendingPrefix = false
		if idx, ok := wordToIndex(u); ok && idx < n {
			return idx, true
		}
	}

	if m := optionTokenRE.FindStringSubmatch(u); m != nil {
		if idx, ok := wordToIndex(m[1]); ok && idx < n {
			return idx, true
		}
	}

	if idx, ok := wordToIndex(u); ok && idx < n {
		return idx, true
	}

	if m := numTokenRE.FindStringSubmatch(u); m != nil {
		v, _ := strconv.Atoi(m[1])
		if idx := v - 1; idx >= 0 && idx < n {
			return idx, true
		}
	}

	return 0, false
}

// MatchOption resolves spoken text against a fixed dropdown option list and
// returns the canonical option text. Feeding a stored option back through
// resolves to itself via the exact-match rule.
func (r *resolver) MatchOption(options []string, raw string) (string, bool) {
	u := strings.ToLower(strings.TrimSpace(raw))

	if isOptionPrefix(u) {
		r.pendingPrefix = true
		return "", false
	}

	if idx, ok := r.indexFor(u, len(options)); ok {
		return options[idx], true
	}

	for _, o := range options {
		if strings.ToLower(o) == u {
			return o, true
		}
	}
	for _, o := range options {
		if strings.Contains(strings.ToLower(o), u) {
			return o, true
		}
	}

	return "", false
}

// PickChoice resolves spoken text against ranked lookup candidates by index,
// id mention or label containment.
func (r *resolver) PickChoice(raw string, choices []models.Choice) (models.Choice, bool) {
	u := strings.ToLower(strings.TrimSpace(raw))

	if isOptionPrefix(u) {
		r.pendingPrefix = true
		return models.Choice{}, false
	}

	if idx, ok := r.indexFor(u, len(choices)); ok {
		return choices[idx], true
	}

	for _, c := range choices {
		if strings.Contains(u, strings.ToLower(c.ID)) {
			return c, true
		}
	}
	for _, c := range choices {
		if strings.Contains(strings.ToLower(c.Label), u) {
			return c, true
		}
	}

	return models.Choice{}, false
}
