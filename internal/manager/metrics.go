package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmapi",
			Subsystem: "session",
			Name:      "total",
			Help:      "Total number of inference sessions by terminal state",
		},
		[]string{"state"},
	)

	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llmapi",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Duration of inference sessions in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"state"},
	)

	generatedTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llmapi",
			Subsystem: "session",
			Name:      "generated_tokens_total",
			Help:      "Total number of inferred tokens",
		},
	)

	sessionsInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llmapi",
			Subsystem: "session",
			Name:      "inflight",
			Help:      "Sessions currently generating",
		},
	)

	admissionWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "llmapi",
			Subsystem: "admission",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a generation slot",
			Buckets:   prometheus.DefBuckets,
		},
	)

	admissionRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmapi",
			Subsystem: "admission",
			Name:      "rejected_total",
			Help:      "Requests rejected by the admission gate",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(sessionsTotal, sessionDuration, generatedTokens, sessionsInflight, admissionWait, admissionRejected)
}
