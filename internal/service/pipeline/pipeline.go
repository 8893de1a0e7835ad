// Package pipeline composes decode, transcription and scoring into one call.
// It is shared by the streaming session controller and the batch controller.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/observability/logging"
	"github.com/Pavankumar07s/Pict-call/internal/service/risk"
)

// Decoder turns audio bytes into normalized PCM.
type Decoder interface {
	Decode(ctx context.Context, chunk models.AudioChunk) (models.PcmBuffer, error)
}

// Transcriber turns PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm models.PcmBuffer) (models.Transcript, error)
}

// Limits bounds the work a single call may request.
type Limits struct {
	MaxChunkBytes int64
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxChunkBytes: 10 * 1024 * 1024, // 10MB (~3.5 minutes at 24kHz 16-bit mono)
	}
}

// Pipeline runs decode -> transcribe -> score strictly in sequence. It holds only
// shared read-only collaborators and is safe for concurrent use.
type Pipeline struct {
	decoder     Decoder
	transcriber Transcriber
	scorer      *risk.Scorer
	limits      Limits
	logger      zerolog.Logger
}

// New creates a pipeline.
func New(decoder Decoder, transcriber Transcriber, scorer *risk.Scorer, limits Limits) *Pipeline {
	return &Pipeline{
		decoder:     decoder,
		transcriber: transcriber,
		scorer:      scorer,
		limits:      limits,
		logger:      logging.WithComponent("pipeline"),
	}
}

// Scorer returns the scorer used for verdicts.
func (p *Pipeline) Scorer() *risk.Scorer {
	return p.scorer
}

// Analyze returns the verdict for one chunk of audio along with the transcript it
// was derived from. Errors carry a models error kind.
func (p *Pipeline) Analyze(ctx context.Context, chunk models.AudioChunk) (models.AnalysisResult, models.Transcript, error) {
	if p.limits.MaxChunkBytes > 0 && int64(len(chunk.Data)) > p.limits.MaxChunkBytes {
		return models.AnalysisResult{}, models.Transcript{}, models.NewProtocolError(
			fmt.Errorf("chunk of %d bytes exceeds limit of %d", len(chunk.Data), p.limits.MaxChunkBytes))
	}

	pcm, err := p.decoder.Decode(ctx, chunk)
	if err != nil {
		return models.AnalysisResult{}, models.Transcript{}, err
	}

	transcript, err := p.transcriber.Transcribe(ctx, pcm)
	if err != nil {
		return models.AnalysisResult{}, models.Transcript{}, err
	}

	result := p.scorer.Score(transcript)

	p.logger.Debug().
		Int("bytes", len(chunk.Data)).
		Dur("audio", pcm.Duration()).
		Bool("suspicious", result.Suspicious).
		Strs("keywords", result.DetectedKeywords).
		Msg("Chunk analyzed")

	return result, transcript, nil
}
