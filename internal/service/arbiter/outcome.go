package arbiter

// Outcome is the arbitration result for one utterance. An early stop is an
// ordinary value, not an error, so a catch-all logger never mistakes it for a
// failure.
type Outcome int

const (
	// Continue - no rule claimed the utterance.
	Continue Outcome = iota
	// Handled - a domain handler consumed the utterance.
	Handled
	// Aborted - a rule intentionally stopped all further processing.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Handled:
		return "handled"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}
