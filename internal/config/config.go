// Package config loads service configuration from the environment with
// sensible defaults. Invalid values fall back to defaults so the service can
// still start.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	Speech        SpeechConfig
	NLP           NLPConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the process and its listen ports.
type ServiceConfig struct {
	Principal  string
	HTTPPort   string
	HealthPort string // gRPC health endpoint
}

// SpeechConfig configures the capture and output engines.
type SpeechConfig struct {
	Provider     string // mock, google
	LanguageCode string
	Voice        string
	SpeakingRate float64
	Pitch        float64
	// ResumeDelay is how long capture waits after synthesis ends before
	// restarting, so the tail of the speaker output is not misrecognized.
	ResumeDelay time.Duration
}

// NLPConfig points at the domain NLP and lookup backends.
type NLPConfig struct {
	ProductBaseURL string
	OrderBaseURL   string
	LookupBaseURL  string
	SubmitBaseURL  string
	Timeout        time.Duration
}

// KafkaConfig configures the result event mirror.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	LogLevel    string
	MetricsAddr string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first, best effort.
func Load() *Configuration {
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-voice-session")

	return &Configuration{
		Service: ServiceConfig{
			Principal:  principal,
			HTTPPort:   envOrDefault("HTTP_PORT", "8080"),
			HealthPort: envOrDefault("HEALTH_GRPC_PORT", "50051"),
		},
		Speech: SpeechConfig{
			Provider:     envOrDefault("SPEECH_PROVIDER", "mock"),
			LanguageCode: envOrDefault("SPEECH_LANGUAGE_CODE", "en-US"),
			Voice:        envOrDefault("SPEECH_TTS_VOICE", "en-US-Neural2-C"),
			SpeakingRate: envOrDefaultFloat("SPEECH_RATE", 1.0),
			Pitch:        envOrDefaultFloat("SPEECH_PITCH", 0.0),
			ResumeDelay:  envOrDefaultDuration("SPEECH_RESUME_DELAY", 400*time.Millisecond),
		},
		NLP: NLPConfig{
			ProductBaseURL: envOrDefault("NLP_PRODUCT_URL", "http://localhost:8000"),
			OrderBaseURL:   envOrDefault("NLP_ORDER_URL", "http://localhost:8000"),
			LookupBaseURL:  envOrDefault("NLP_LOOKUP_URL", "http://localhost:8000"),
			SubmitBaseURL:  envOrDefault("NLP_SUBMIT_URL", "http://localhost:8000"),
			Timeout:        envOrDefaultDuration("NLP_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:   envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:   envOrDefaultSlice("KAFKA_BROKERS", nil),
			Topic:     envOrDefault("KAFKA_TOPIC", "voice.session.events"),
			Principal: envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return def
	}
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
