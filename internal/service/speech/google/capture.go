// Package google provides Google Cloud speech engines for the gateway.
package google

import (
	"context"
	"sync"

	speechapi "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"voice-session-orchestrator/internal/service/speech"
)

// Capture implements speech.CaptureEngine using Google Cloud Speech-to-Text
// streaming recognition. Only final transcripts are delivered downstream.
type Capture struct {
	client       *speechapi.Client
	languageCode string
	sampleRateHz int32

	mu      sync.Mutex
	stream  speechpb.Speech_StreamingRecognizeClient
	cancel  context.CancelFunc
	aborted bool
}

// NewCapture creates a Google STT capture engine.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
func NewCapture(ctx context.Context, languageCode string) (*Capture, error) {
	c, err := speechapi.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Capture{
		client:       c,
		languageCode: languageCode,
		sampleRateHz: 16000,
	}, nil
}

// Start begins a continuous streaming recognition session and sends the
// initial config.
func (c *Capture) Start(ctx context.Context, cb speech.CaptureCallback) error {
	streamCtx, cancel := context.WithCancel(ctx)

	stream, err := c.client.StreamingRecognize(streamCtx)
	if err != nil {
		cancel()
		return err
	}

	c.mu.Lock()
	c.stream = stream
	c.cancel = cancel
	c.aborted = false
	c.mu.Unlock()

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: c.sampleRateHz,
					LanguageCode:    c.languageCode,
				},
				InterimResults: false,
			},
		},
	}); err != nil {
		cancel()
		return err
	}

	go c.listen(stream, cb)
	return nil
}

// listen receives transcript responses and invokes callbacks.
func (c *Capture) listen(stream speechpb.Speech_StreamingRecognizeClient, cb speech.CaptureCallback) {
	for {
		resp, err := stream.Recv()
		if err != nil {
			c.mu.Lock()
			aborted := c.aborted
			c.mu.Unlock()
			if aborted {
				cb.OnError(speech.ErrCaptureAborted)
			} else {
				cb.OnError(err)
			}
			return
		}

		for _, r := range resp.Results {
			if !r.IsFinal || len(r.Alternatives) == 0 {
				continue
			}
			cb.OnText(r.Alternatives[0].Transcript)
		}
	}
}

// SendAudio forwards audio bytes into the recognition stream. The audio
// source (telephony leg, media server, ...) is wired by the caller.
func (c *Capture) SendAudio(audio []byte) error {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return speech.ErrCaptureAborted
	}
	return stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

// Stop ends the streaming session gracefully.
func (c *Capture) Stop() error {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()
	if stream != nil {
		return stream.CloseSend()
	}
	return nil
}

// Abort cuts the session off; the receive loop reports ErrCaptureAborted.
func (c *Capture) Abort() error {
	c.mu.Lock()
	c.aborted = true
	cancel := c.cancel
	c.stream = nil
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}
