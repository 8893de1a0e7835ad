// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pict_call"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionsFailed  prometheus.Counter
	SessionDuration prometheus.Histogram

	// Chunk metrics
	ChunksProcessed    prometheus.Counter
	ChunksDegraded     *prometheus.CounterVec
	ChunkBytesReceived prometheus.Counter

	// Decoder metrics
	DecodeAttempts *prometheus.CounterVec
	DecodeLatency  prometheus.Histogram

	// STT metrics
	STTLatency *prometheus.HistogramVec
	STTErrors  *prometheus.CounterVec

	// Verdict metrics
	Verdicts      *prometheus.CounterVec
	BatchRequests *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// gRPC metrics
	GRPCCalls        *prometheus.CounterVec
	GRPCCallDuration *prometheus.HistogramVec

	// Scratch file accounting
	TempFilesLive prometheus.Gauge
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of streaming sessions opened",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently open streaming sessions",
		}),
		SessionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_failed_total",
			Help:      "Total number of sessions ended by a protocol violation or transport error",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of streaming sessions in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),

		ChunksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_processed_total",
			Help:      "Total number of streamed chunks that produced a result",
		}),
		ChunksDegraded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_degraded_total",
			Help:      "Total number of chunks answered with a degraded result",
		}, []string{"kind"}),
		ChunkBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_bytes_received_total",
			Help:      "Total audio bytes received on streaming sessions",
		}),

		DecodeAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_attempts_total",
			Help:      "Decode strategy attempts by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		DecodeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_latency_seconds",
			Help:      "Time spent decoding one audio buffer",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),

		STTLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Speech-to-text processing latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"provider"}),
		STTErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of STT engine errors",
		}, []string{"provider"}),

		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Analysis verdicts by mode and outcome",
		}, []string{"mode", "verdict"}),
		BatchRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_requests_total",
			Help:      "Batch upload requests by HTTP status",
		}, []string{"status"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		GRPCCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_calls_total",
			Help:      "Completed gRPC calls by method and status code",
		}, []string{"method", "code"}),
		GRPCCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_call_duration_seconds",
			Help:      "Duration of gRPC calls in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		}, []string{"method"}),

		TempFilesLive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temp_files_live",
			Help:      "Temporary audio files currently held by in-flight requests",
		}),
	}
}

// RecordSessionStart records a new session opening.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session closing.
func (m *Metrics) RecordSessionEnd(success bool, durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
	if !success {
		m.SessionsFailed.Inc()
	}
}

// RecordChunk records one chunk received on a session.
func (m *Metrics) RecordChunk(bytes int) {
	m.ChunksProcessed.Inc()
	m.ChunkBytesReceived.Add(float64(bytes))
}

// RecordChunkDegraded records a chunk answered with a degraded result.
func (m *Metrics) RecordChunkDegraded(kind string) {
	m.ChunksDegraded.WithLabelValues(kind).Inc()
}

// RecordDecodeAttempt records the outcome of one decode strategy.
func (m *Metrics) RecordDecodeAttempt(strategy string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.DecodeAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordDecodeLatency records the total time spent in one decode call.
func (m *Metrics) RecordDecodeLatency(seconds float64) {
	m.DecodeLatency.Observe(seconds)
}

// RecordSTT records a transcription engine call.
func (m *Metrics) RecordSTT(provider string, seconds float64, err error) {
	m.STTLatency.WithLabelValues(provider).Observe(seconds)
	if err != nil {
		m.STTErrors.WithLabelValues(provider).Inc()
	}
}

// RecordVerdict records a produced verdict for the given mode (stream or batch).
func (m *Metrics) RecordVerdict(mode string, suspicious bool) {
	verdict := "clean"
	if suspicious {
		verdict = "suspicious"
	}
	m.Verdicts.WithLabelValues(mode, verdict).Inc()
}

// RecordBatchRequest records the HTTP status returned for a batch upload.
func (m *Metrics) RecordBatchRequest(status int) {
	m.BatchRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordGRPCCall records a completed unary call or stream.
func (m *Metrics) RecordGRPCCall(method, code string, durationSeconds float64) {
	m.GRPCCalls.WithLabelValues(method, code).Inc()
	m.GRPCCallDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordTempFiles adjusts the live temporary file gauge.
func (m *Metrics) RecordTempFiles(delta int) {
	m.TempFilesLive.Add(float64(delta))
}
