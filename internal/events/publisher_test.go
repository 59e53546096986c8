package events

import (
	"context"
	"testing"
)

func TestNewPublisher_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writer != nil {
				t.Error("expected nil writer when disabled")
			}
		})
	}
}

func TestNewPublisher_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:   false,
		Brokers:   []string{"localhost:9092"},
		Topic:     "voice.session.events",
		Principal: "test-principal",
	}

	p := NewPublisher(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topic != "voice.session.events" {
		t.Errorf("expected topic 'voice.session.events', got %s", p.topic)
	}
}

func TestPublish_DisabledIsLogOnly(t *testing.T) {
	p := NewPublisher(&Config{Enabled: false})

	if err := p.Publish(context.Background(), "products", map[string]string{"k": "v"}); err != nil {
		t.Errorf("disabled publish should not error, got %v", err)
	}
}

func TestPublish_MarshalFailure(t *testing.T) {
	p := NewPublisher(&Config{Enabled: false})

	// A channel cannot be marshaled to JSON.
	if err := p.Publish(context.Background(), "products", make(chan int)); err == nil {
		t.Error("expected marshal error for unmarshalable payload")
	}
}

func TestClose_NilWriter(t *testing.T) {
	p := NewPublisher(nil)
	if err := p.Close(); err != nil {
		t.Errorf("expected nil error closing disabled publisher, got %v", err)
	}
}
