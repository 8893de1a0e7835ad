// Package batch analyzes whole uploaded files in one shot.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/observability/logging"
	"github.com/Pavankumar07s/Pict-call/internal/observability/metrics"
	"github.com/Pavankumar07s/Pict-call/internal/service/pipeline"
	"github.com/Pavankumar07s/Pict-call/internal/service/session"
)

// ErrUnsupportedFormat is returned for file names outside the accepted extensions.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DefaultExtensions are the accepted upload container extensions.
var DefaultExtensions = []string{".wav", ".mp3", ".ogg", ".flac", ".m4a", ".webm"}

var extensionContentTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
}

// Controller runs uploads through the pipeline once and attaches keyword segments.
type Controller struct {
	pipeline   *pipeline.Pipeline
	publisher  session.Publisher
	extensions []string
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewController creates a batch controller. publisher may be nil.
func NewController(p *pipeline.Pipeline, publisher session.Publisher) *Controller {
	return &Controller{
		pipeline:   p,
		publisher:  publisher,
		extensions: DefaultExtensions,
		logger:     logging.WithComponent("batch"),
		metrics:    metrics.DefaultMetrics,
	}
}

// Extensions returns the accepted file extensions.
func (c *Controller) Extensions() []string {
	return append([]string(nil), c.extensions...)
}

// Analyze decodes, transcribes and scores a complete file. Any stage failure fails
// the whole request with the stage's error kind; there is no partial result.
// An unsupported extension is a models.ErrProtocol wrapping ErrUnsupportedFormat.
func (c *Controller) Analyze(ctx context.Context, filename string, data []byte) (models.AnalysisResult, error) {
	requestID := uuid.NewString()
	logger := logging.WithRequest(requestID, filename)

	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(c.extensions, ext) {
		logger.Warn().Str("extension", ext).Msg("Rejected upload with unsupported extension")
		return models.AnalysisResult{}, models.NewProtocolError(fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext))
	}

	logger.Info().Int("bytes", len(data)).Msg("Starting to process file")

	chunk := models.AudioChunk{Data: data, ContentType: extensionContentTypes[ext]}
	result, transcript, err := c.pipeline.Analyze(ctx, chunk)
	if err != nil {
		logger.Error().Err(err).Str("kind", models.KindName(err)).Msg("Batch analysis failed")
		return models.AnalysisResult{}, err
	}

	result.Segments, result.SegmentsApproximate = c.pipeline.Scorer().Segments(transcript, result.DetectedKeywords)
	c.metrics.RecordVerdict("batch", result.Suspicious)

	logger.Info().
		Bool("suspicious", result.Suspicious).
		Strs("keywords", result.DetectedKeywords).
		Int("segments", len(result.Segments)).
		Bool("approximate", result.SegmentsApproximate).
		Msg("Analysis complete")

	if c.publisher != nil {
		ev := result.Event(models.EventTypeBatchAnalysis, transcript.Text, false)
		ev.RequestID = requestID
		if err := c.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish analysis event")
		}
	}

	return result, nil
}
