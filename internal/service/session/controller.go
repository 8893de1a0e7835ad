// Package session runs long-lived streaming sessions. Each inbound message is one
// chunk of audio; each chunk yields exactly one result, degraded when any stage
// fails. Only a disconnect, a protocol violation, or a configuration error ends
// the session.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/observability/logging"
	"github.com/Pavankumar07s/Pict-call/internal/observability/metrics"
)

// ErrProtocolViolation is wrapped by transports when the peer breaks the framing
// rules. It ends the session, unlike a malformed chunk payload.
var ErrProtocolViolation = errors.New("transport protocol violation")

// Encoding is the transport encoding of a message payload.
type Encoding int

const (
	// EncodingRaw means the payload is the audio bytes.
	EncodingRaw Encoding = iota
	// EncodingBase64 means the payload is base64 text, optionally as a data URL.
	EncodingBase64
)

// Message is one inbound chunk as framed by the transport.
type Message struct {
	Payload     []byte
	Encoding    Encoding
	ContentType string
}

// Transport is the duplex connection a session runs on.
type Transport interface {
	// Name identifies the transport kind in logs ("websocket", "grpc").
	Name() string

	// Receive blocks for the next message. It returns io.EOF when the peer
	// closed the connection.
	Receive(ctx context.Context) (Message, error)

	// Send delivers one result to the peer.
	Send(ctx context.Context, result models.AnalysisResult) error

	// Done is closed when the connection is gone.
	Done() <-chan struct{}
}

// Analyzer runs decode -> transcribe -> score for one chunk.
type Analyzer interface {
	Analyze(ctx context.Context, chunk models.AudioChunk) (models.AnalysisResult, models.Transcript, error)
}

// Publisher receives a record of every result.
type Publisher interface {
	Publish(ctx context.Context, ev models.AnalysisEvent) error
}

// Summary describes a finished session.
type Summary struct {
	SessionID string
	Chunks    int
	Degraded  int
	Reason    CloseReason
	Duration  time.Duration
}

// Controller runs sessions. One Controller serves every connection; all per-session
// state lives in Run.
type Controller struct {
	analyzer  Analyzer
	publisher Publisher
	now       func() time.Time
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewController creates a controller. publisher may be nil.
func NewController(analyzer Analyzer, publisher Publisher) *Controller {
	return &Controller{
		analyzer:  analyzer,
		publisher: publisher,
		now:       time.Now,
		logger:    logging.WithComponent("session"),
		metrics:   metrics.DefaultMetrics,
	}
}

// Degraded is the result sent in place of a verdict when a chunk fails.
func Degraded(err error, at time.Time) models.AnalysisResult {
	return models.AnalysisResult{
		Suspicious:       false,
		Confidence:       0,
		Reasons:          []string{"Error: " + err.Error()},
		DetectedKeywords: []string{},
		Timestamp:        at,
	}
}

// Run serves one connection until it closes. Chunks are processed strictly one at
// a time; the next message is not read until the previous result was sent. The
// returned error is nil for an ordinary disconnect.
func (c *Controller) Run(ctx context.Context, sessionID string, t Transport) (Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-t.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	lc := NewLifecycle(sessionID)
	logger := logging.WithSession(sessionID, t.Name())
	start := c.now()

	c.metrics.RecordSessionStart()
	logger.Info().Msg("Session opened")

	err := c.loop(ctx, lc, t, logger)

	summary := Summary{
		SessionID: sessionID,
		Chunks:    lc.Chunks(),
		Degraded:  lc.Degraded(),
		Reason:    lc.Reason(),
		Duration:  c.now().Sub(start),
	}
	c.metrics.RecordSessionEnd(err == nil, summary.Duration.Seconds())

	event := logger.Info()
	if err != nil {
		event = logger.Warn().Err(err)
	}
	event.
		Str("reason", string(summary.Reason)).
		Int("chunks", summary.Chunks).
		Int("degraded", summary.Degraded).
		Dur("duration", summary.Duration).
		Msg("Session closed")

	return summary, err
}

func (c *Controller) loop(ctx context.Context, lc *Lifecycle, t Transport, logger zerolog.Logger) error {
	for {
		if ctx.Err() != nil {
			lc.Close(ReasonDisconnect)
			return nil
		}

		msg, err := t.Receive(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), ctx.Err() != nil:
				lc.Close(ReasonDisconnect)
				return nil
			case errors.Is(err, ErrProtocolViolation):
				lc.Close(ReasonProtocol)
				return err
			default:
				lc.Close(ReasonTransport)
				return err
			}
		}

		n, err := lc.BeginChunk()
		if err != nil {
			return err
		}
		chunkID := ChunkID(lc.SessionId(), n)
		c.metrics.RecordChunk(len(msg.Payload))

		result, transcript, err := c.process(ctx, msg)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Str("chunkId", chunkID).Msg("Disconnected while processing chunk")
				lc.Close(ReasonDisconnect)
				return nil
			}
			if errors.Is(err, models.ErrConfiguration) {
				logger.Error().Err(err).Str("chunkId", chunkID).Msg("Service misconfigured, ending session")
				lc.Close(ReasonMisconfigured)
				return err
			}

			chunkLogger := logging.WithChunk(lc.SessionId(), chunkID)
			chunkLogger.Warn().
				Err(err).
				Str("kind", models.KindName(err)).
				Msg("Chunk failed, sending degraded result")
			c.metrics.RecordChunkDegraded(models.KindName(err))
			lc.MarkDegraded()
			result = Degraded(err, c.now())
		} else {
			c.metrics.RecordVerdict("stream", result.Suspicious)
		}

		if err := t.Send(ctx, result); err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				lc.Close(ReasonDisconnect)
				return nil
			}
			lc.Close(ReasonTransport)
			return err
		}

		c.publish(ctx, lc.SessionId(), chunkID, result, transcript, err != nil)
	}
}

// Once runs a single message through the per-chunk path outside of a session. It
// fails only on configuration errors; every other failure becomes a degraded result.
func (c *Controller) Once(ctx context.Context, sessionID string, msg Message) (models.AnalysisResult, error) {
	chunkID := ChunkID(sessionID, 1)
	c.metrics.RecordChunk(len(msg.Payload))

	result, transcript, err := c.process(ctx, msg)
	if err != nil {
		if errors.Is(err, models.ErrConfiguration) {
			return models.AnalysisResult{}, err
		}
		chunkLogger := logging.WithChunk(sessionID, chunkID)
		chunkLogger.Warn().
			Err(err).
			Str("kind", models.KindName(err)).
			Msg("Chunk failed, returning degraded result")
		c.metrics.RecordChunkDegraded(models.KindName(err))
		result = Degraded(err, c.now())
	} else {
		c.metrics.RecordVerdict("stream", result.Suspicious)
	}

	c.publish(ctx, sessionID, chunkID, result, transcript, err != nil)
	return result, nil
}

func (c *Controller) process(ctx context.Context, msg Message) (models.AnalysisResult, models.Transcript, error) {
	chunk, err := Unwrap(msg)
	if err != nil {
		return models.AnalysisResult{}, models.Transcript{}, err
	}
	return c.analyzer.Analyze(ctx, chunk)
}

func (c *Controller) publish(ctx context.Context, sessionID, chunkID string, result models.AnalysisResult, transcript models.Transcript, degraded bool) {
	if c.publisher == nil {
		return
	}
	ev := result.Event(models.EventTypeStreamAnalysis, transcript.Text, degraded)
	ev.SessionID = sessionID
	ev.ChunkID = chunkID
	if err := c.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		c.logger.Warn().Err(err).Str("chunkId", chunkID).Msg("Failed to publish analysis event")
	}
}

// Unwrap removes the transport encoding from a message. A payload that cannot be
// decoded is a models.ErrProtocol.
func Unwrap(msg Message) (models.AudioChunk, error) {
	if msg.Encoding == EncodingRaw {
		return models.AudioChunk{Data: msg.Payload, ContentType: msg.ContentType}, nil
	}

	text := strings.TrimSpace(string(msg.Payload))
	contentType := msg.ContentType

	// data:audio/wav;base64,<payload>
	if rest, ok := strings.CutPrefix(text, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return models.AudioChunk{}, models.NewProtocolError(errors.New("malformed data URL"))
		}
		if ct := strings.TrimSuffix(header, ";base64"); ct != "" {
			contentType = ct
		}
		text = body
	}

	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return models.AudioChunk{}, models.NewProtocolError(err)
	}
	return models.AudioChunk{Data: data, ContentType: contentType}, nil
}
