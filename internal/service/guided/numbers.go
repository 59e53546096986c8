package guided

import (
	"regexp"
	"strconv"
	"strings"
)

// digitWords maps single-digit number words for digit-by-digit concatenation
// ("one two three" means 123).
var digitWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
}

// numberWords maps spoken magnitude words to values, used standalone and
// before a k/thousand/million suffix ("fifty k").
var numberWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	"hundred": 100,
}

var (
	millionRE  = regexp.MustCompile(`(\d+(\.\d+)?)\s*million`)
	thousandRE = regexp.MustCompile(`(\d+(\.\d+)?)\s*(k|thousand)\b`)
	strayRE    = regexp.MustCompile(`[^0-9.]`)
)

// ParseSpokenNumber parses a spoken magnitude: bare digits, decimals,
// k/thousand/million suffixes with a digit or number-word magnitude, half and
// quarter million, and single-digit words concatenated digit by digit.
func ParseSpokenNumber(raw string) (float64, bool) {
	u := strings.ToLower(strings.TrimSpace(raw))

	if strings.Contains(u, "half million") {
		return 500000, true
	}
	if strings.Contains(u, "quarter million") {
		return 250000, true
	}

	if m := millionRE.FindStringSubmatch(u); m != nil {
		n, _ := parseFloat(m[1])
		return n * 1_000_000, true
	}
	if m := thousandRE.FindStringSubmatch(u); m != nil {
		n, _ := parseFloat(m[1])
		return n * 1_000, true
	}

	tokens := strings.Fields(u)

	// Word magnitude before a suffix, e.g. "fifty k" or "two hundred thousand".
	if len(tokens) >= 2 {
		if mult, ok := suffixMultiplier(tokens[len(tokens)-1]); ok {
			if n, ok := wordsValue(tokens[:len(tokens)-1]); ok {
				return n * mult, true
			}
		}
	}

	// Digit-by-digit concatenation, only if every token is a digit word.
	if len(tokens) > 1 && allDigitWords(tokens) {
		var sb strings.Builder
		for _, t := range tokens {
			sb.WriteString(digitWords[t])
		}
		n, _ := parseFloat(sb.String())
		return n, true
	}

	if len(tokens) == 1 {
		if v, ok := numberWords[tokens[0]]; ok {
			return v, true
		}
	}

	n, ok := parseFloat(strayRE.ReplaceAllString(u, ""))
	if !ok {
		return 0, false
	}
	if n == 0 && !strings.Contains(u, "0") && !strings.Contains(u, "zero") {
		return 0, false
	}
	return n, true
}

func suffixMultiplier(token string) (float64, bool) {
	switch token {
	case "k", "thousand":
		return 1_000, true
	case "million":
		return 1_000_000, true
	}
	return 0, false
}

// wordsValue sums simple magnitude phrases like "fifty", "twenty five" or
// "two hundred".
func wordsValue(tokens []string) (float64, bool) {
	if len(tokens) == 0 {
		return 0, false
	}
	total := 0.0
	for _, t := range tokens {
		v, ok := numberWords[t]
		if !ok {
			if n, okNum := parseFloat(t); okNum {
				v = n
			} else {
				return 0, false
			}
		}
		if v == 100 && total > 0 {
			total *= 100
		} else {
			total += v
		}
	}
	return total, true
}

func allDigitWords(tokens []string) bool {
	for _, t := range tokens {
		if _, ok := digitWords[t]; !ok {
			return false
		}
	}
	return true
}

// NumberLike reports whether an utterance can plausibly be a number: it holds
// a digit, a known number word, or a word magnitude with a suffix. Used to
// reject non-numeric input when re-entering a numeric field through an edit
// command.
func NumberLike(raw string) bool {
	u := strings.ToLower(strings.TrimSpace(raw))
	if hasDigitRE.MatchString(u) {
		return true
	}
	if strings.Contains(u, "half million") || strings.Contains(u, "quarter million") {
		return true
	}
	for _, t := range strings.Fields(u) {
		if _, ok := numberWords[t]; ok {
			return true
		}
	}
	return false
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// formatNumber renders a parsed number the way it is stored and spoken:
// integers without a decimal point, fractions with their natural precision.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
