// Package events publishes analysis results to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/observability/metrics"
	"github.com/Pavankumar07s/Pict-call/internal/schema"
)

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes analysis events to separate topics for streamed chunks and
// batch uploads. When Kafka is disabled events are only logged.
type Publisher struct {
	writerStream messageWriter
	writerBatch  messageWriter
	principal    string
	topicStream  string
	topicBatch   string
	enabled      bool
	validator    *schema.Validator
	metrics      *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers     []string
	TopicStream string
	TopicBatch  string
	Principal   string
	Enabled     bool
}

// New creates a Kafka event publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled:   false,
			validator: schema.New(),
			metrics:   m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:   cfg.Principal,
			topicStream: cfg.TopicStream,
			topicBatch:  cfg.TopicBatch,
			enabled:     false,
			validator:   schema.New(),
			metrics:     m,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicStream", cfg.TopicStream).
		Str("topicBatch", cfg.TopicBatch).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerStream: newWriter(cfg.Brokers, cfg.TopicStream, transport),
		writerBatch:  newWriter(cfg.Brokers, cfg.TopicBatch, transport),
		principal:    cfg.Principal,
		topicStream:  cfg.TopicStream,
		topicBatch:   cfg.TopicBatch,
		enabled:      true,
		validator:    schema.New(),
		metrics:      m,
	}
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// Publish routes an event to the topic for its type.
func (p *Publisher) Publish(ctx context.Context, ev models.AnalysisEvent) error {
	switch ev.EventType {
	case models.EventTypeStreamAnalysis:
		return p.PublishStream(ctx, ev)
	case models.EventTypeBatchAnalysis:
		return p.PublishBatch(ctx, ev)
	default:
		return fmt.Errorf("unknown event type %q", ev.EventType)
	}
}

// PublishStream publishes a per-chunk result keyed by session.
func (p *Publisher) PublishStream(ctx context.Context, ev models.AnalysisEvent) error {
	return p.publish(ctx, p.writerStream, p.topicStream, ev.SessionID, ev)
}

// PublishBatch publishes an upload result keyed by request.
func (p *Publisher) PublishBatch(ctx context.Context, ev models.AnalysisEvent) error {
	return p.publish(ctx, p.writerBatch, p.topicBatch, ev.RequestID, ev)
}

func (p *Publisher) publish(ctx context.Context, writer messageWriter, topic, key string, ev models.AnalysisEvent) error {
	start := time.Now()

	if err := p.validator.Validate(ev); err != nil {
		log.Error().Err(err).Str("topic", topic).Str("key", key).Msg("Refusing to publish invalid event")
		p.metrics.RecordKafkaPublish(topic, ev.EventType, err, time.Since(start).Seconds())
		return err
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, ev.EventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(ev.EventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, ev.EventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, ev.EventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerStream != nil {
		if e := p.writerStream.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing stream writer")
			err = e
		}
	}
	if p.writerBatch != nil {
		if e := p.writerBatch.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing batch writer")
			err = e
		}
	}
	return err
}
