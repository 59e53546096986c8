// Package normalize collapses spoken number words into compact codes so that
// utterances like "op one zero four four" can be matched as "OP1044".
package normalize

import (
	"regexp"
	"strings"
)

var digitWords = map[string]string{
	"zero": "0", "oh": "0",
	"one": "1",
	"two": "2", "to": "2", "too": "2",
	"three": "3",
	"four": "4", "for": "4",
	"five":  "5",
	"six":   "6",
	"seven": "7",
	"eight": "8", "ate": "8",
	"nine": "9",
}

var (
	digitWordRE   = regexp.MustCompile(`\b(zero|oh|one|two|to|too|three|four|for|five|six|seven|eight|ate|nine)\b`)
	letterDigitRE = regexp.MustCompile(`([a-z]+)\s*((?:\d\s*)+)`)
	spaceRE       = regexp.MustCompile(`\s+`)
)

// Spoken turns a spoken identifier into a compact upper-case code:
//
//	"op one two three four" -> "OP1234"
//	"opp n zero one"        -> "OPPN01"
//
// Text without number words passes through with spaces stripped and case
// raised, so callers should only apply it where a code is expected.
func Spoken(raw string) string {
	if raw == "" {
		return raw
	}

	lower := strings.ToLower(strings.TrimSpace(raw))

	// "one two three" -> "1 2 3"
	lower = digitWordRE.ReplaceAllStringFunc(lower, func(m string) string {
		if d, ok := digitWords[m]; ok {
			return d
		}
		return m
	})

	// "op 1 2 3 4" -> "op1234"
	lower = letterDigitRE.ReplaceAllStringFunc(lower, func(m string) string {
		sub := letterDigitRE.FindStringSubmatch(m)
		return sub[1] + spaceRE.ReplaceAllString(sub[2], "")
	})

	// "op pn 01" -> "oppn01"
	lower = spaceRE.ReplaceAllString(lower, "")

	return strings.ToUpper(lower)
}
