// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_session_orchestrator"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Utterance metrics
	UtterancesTotal   prometheus.Counter
	UtterancesRouted  *prometheus.CounterVec
	UtterancesDropped *prometheus.CounterVec

	// Mode metrics
	ModeSwitches *prometheus.CounterVec

	// Guided dialogue metrics
	GuidedFlowsStarted   prometheus.Counter
	GuidedFlowsStopped   *prometheus.CounterVec
	GuidedStepsAdvanced  prometheus.Counter
	GuidedReprompts      prometheus.Counter
	DisambiguationRounds prometheus.Counter
	StaleLookupsDropped  prometheus.Counter

	// Speech gateway metrics
	BargeIns        prometheus.Counter
	CaptureResumes  prometheus.Counter
	SynthesisTotal  prometheus.Counter
	SynthesisErrors prometheus.Counter

	// Backend call metrics
	LookupLatency *prometheus.HistogramVec
	LookupErrors  *prometheus.CounterVec

	// Bus metrics
	BusPublishes *prometheus.CounterVec

	// Kafka mirror metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		UtterancesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total number of recognized utterances received",
		}),
		UtterancesRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_routed_total",
			Help:      "Utterances routed, by classified journey and arbitration outcome",
		}, []string{"journey", "outcome"}),
		UtterancesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_dropped_total",
			Help:      "Utterances dropped before any handler ran",
		}, []string{"reason"}),

		ModeSwitches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mode_switches_total",
			Help:      "Voice mode switches, by target mode",
		}, []string{"mode"}),

		GuidedFlowsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guided_flows_started_total",
			Help:      "Guided opportunity flows started",
		}),
		GuidedFlowsStopped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guided_flows_stopped_total",
			Help:      "Guided opportunity flows ended, by cause",
		}, []string{"cause"}),
		GuidedStepsAdvanced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guided_steps_advanced_total",
			Help:      "Guided dialogue steps advanced",
		}),
		GuidedReprompts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guided_reprompts_total",
			Help:      "Guided dialogue re-prompts after unrecognized or invalid input",
		}),
		DisambiguationRounds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disambiguation_rounds_total",
			Help:      "Disambiguation rounds surfaced to the user",
		}),
		StaleLookupsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_lookups_dropped_total",
			Help:      "Lookup responses discarded because the dialogue step had moved on",
		}),

		BargeIns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "barge_ins_total",
			Help:      "Times user speech interrupted in-progress synthesis",
		}),
		CaptureResumes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_resumes_total",
			Help:      "Capture sessions resumed after synthesis ended",
		}),
		SynthesisTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_total",
			Help:      "Speech synthesis requests",
		}),
		SynthesisErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_errors_total",
			Help:      "Speech synthesis failures",
		}),

		LookupLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_latency_seconds",
			Help:      "Backend call latency in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"kind"}),
		LookupErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_errors_total",
			Help:      "Backend call failures",
		}, []string{"kind"}),

		BusPublishes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_publishes_total",
			Help:      "Result bus publishes, by target domain",
		}, []string{"target"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka mirror messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka mirror publish errors",
		}, []string{"topic"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka mirror publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordKafkaPublish records one Kafka mirror publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error, seconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(seconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}

// RecordLookup records one backend call.
func (m *Metrics) RecordLookup(kind string, err error, seconds float64) {
	m.LookupLatency.WithLabelValues(kind).Observe(seconds)
	if err != nil {
		m.LookupErrors.WithLabelValues(kind).Inc()
	}
}
