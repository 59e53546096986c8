package google

import (
	"context"
	"io"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	ttspb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"

	"voice-session-orchestrator/internal/service/speech"
)

// Output implements speech.OutputEngine using Google Cloud Text-to-Speech.
// Synthesized LINEAR16 audio is written to the injected sink (a playback
// device, telephony leg, media server, ...).
type Output struct {
	client *texttospeech.Client
	sink   io.Writer

	mu       sync.Mutex
	speaking bool
	cancel   context.CancelFunc
}

// NewOutput creates a Google TTS output engine writing audio to sink.
func NewOutput(ctx context.Context, sink io.Writer) (*Output, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Output{client: c, sink: sink}, nil
}

// Speak synthesizes text and writes the audio to the sink. Blocks until the
// write completes or the request is interrupted.
func (o *Output) Speak(ctx context.Context, text string, opts speech.SpeakOptions) error {
	reqCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.speaking = true
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.speaking = false
		o.cancel = nil
		o.mu.Unlock()
	}()

	resp, err := o.client.SynthesizeSpeech(reqCtx, &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{
			InputSource: &ttspb.SynthesisInput_Text{Text: text},
		},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: opts.LanguageCode,
			Name:         opts.Voice,
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding: ttspb.AudioEncoding_LINEAR16,
			SpeakingRate:  opts.Rate,
			Pitch:         opts.Pitch,
		},
	})
	if err != nil {
		return err
	}

	if reqCtx.Err() != nil {
		// Interrupted while synthesizing: discard the audio.
		return nil
	}

	_, err = o.sink.Write(resp.AudioContent)
	return err
}

// Interrupt hard-cancels the in-progress synthesis.
func (o *Output) Interrupt() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Stop cancels anything speaking.
func (o *Output) Stop() {
	o.Interrupt()
}

// Speaking reports whether synthesis is in progress.
func (o *Output) Speaking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speaking
}

// Queued always reports false: the gateway serializes prompts itself.
func (o *Output) Queued() bool { return false }
