// Package speech wraps a continuous capture engine and a synthesis engine
// behind a gateway that enforces capture/output mutual exclusion.
package speech

import "context"

// ErrCaptureAborted classifies a capture failure as intentional: the
// recognizer was cut off on purpose (typically because synthesis was about to
// start) and the error is expected and ignorable.
type abortedError struct{}

func (abortedError) Error() string { return "speech capture aborted" }

// ErrCaptureAborted is reported by capture engines when recognition is
// aborted deliberately.
var ErrCaptureAborted error = abortedError{}

// IsAborted reports whether err is an intentional capture abort.
func IsAborted(err error) bool {
	return err == ErrCaptureAborted
}

// CaptureCallback receives recognized text and errors from the capture engine.
type CaptureCallback interface {
	// OnText is called once per recognized final utterance.
	OnText(text string)

	// OnError is called when recognition fails. Aborted errors are expected
	// during output barge-in and must not be treated as real failures.
	OnError(err error)
}

// CaptureEngine is a continuous speech recognizer (Web Speech, Google STT,
// mock, ...).
type CaptureEngine interface {
	// Start begins a continuous recognition session.
	Start(ctx context.Context, cb CaptureCallback) error

	// Stop ends the session gracefully; buffered audio may still yield text.
	Stop() error

	// Abort cuts the session off immediately so no tail audio is
	// misrecognized. The engine reports ErrCaptureAborted on the callback.
	Abort() error
}

// SpeakOptions configures one synthesis request.
type SpeakOptions struct {
	LanguageCode string
	Voice        string
	Rate         float64
	Pitch        float64
}

// OutputEngine synthesizes speech. Speak blocks until playback completes or
// the request is interrupted.
type OutputEngine interface {
	Speak(ctx context.Context, text string, opts SpeakOptions) error

	// Interrupt hard-cancels the in-progress synthesis; Speak returns early.
	Interrupt()

	// Stop cancels anything queued or speaking.
	Stop()

	Speaking() bool
	Queued() bool
}
