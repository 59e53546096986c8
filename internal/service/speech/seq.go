package speech

import (
	"fmt"
	"sync/atomic"
)

// Sequence generates monotonically increasing utterance sequence numbers for
// a session. Safe for concurrent use.
type Sequence struct {
	counter uint64
}

func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next sequence number.
func (s *Sequence) Next() int64 {
	return int64(atomic.AddUint64(&s.counter, 1))
}

// NextID returns the next utterance ID scoped to a session.
func (s *Sequence) NextID(sessionID string) string {
	return fmt.Sprintf("%s-utt-%d", sessionID, s.Next())
}
