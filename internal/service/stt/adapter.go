// Package stt adapts file-based speech-to-text engines to decoded PCM buffers.
//
// Engines in this domain read audio from a named file rather than memory, so the
// Transcriber materializes each buffer as a scoped temporary WAV file, hands the
// path to the engine, and removes the file before returning.
package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/observability/logging"
	"github.com/Pavankumar07s/Pict-call/internal/observability/metrics"
	"github.com/Pavankumar07s/Pict-call/internal/scratch"
	"github.com/Pavankumar07s/Pict-call/internal/service/decode"
)

// ErrEmptyAudio is the cause reported for buffers with no samples. The engine is
// never invoked for them.
var ErrEmptyAudio = errors.New("empty audio buffer")

// Engine is an external speech-to-text engine (whisper.cpp, Google, etc.).
//
// A single Engine is created at startup and shared by every session and request,
// so implementations must be safe for concurrent use.
type Engine interface {
	// Name identifies the engine in logs and metrics.
	Name() string

	// Transcribe returns the speech in the mono 16-bit WAV file at path.
	// Silence yields an empty transcript, not an error.
	Transcribe(ctx context.Context, path string) (models.Transcript, error)
}

// Transcriber is the transcription adapter. It keeps no per-call state and
// performs no caching.
type Transcriber struct {
	engine  Engine
	scratch *scratch.Dir
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a Transcriber around a shared engine handle.
func New(engine Engine, dir *scratch.Dir) *Transcriber {
	return &Transcriber{
		engine:  engine,
		scratch: dir,
		logger:  logging.WithComponent("transcriber").With().Str("provider", engine.Name()).Logger(),
		metrics: metrics.DefaultMetrics,
	}
}

// Provider returns the engine name.
func (t *Transcriber) Provider() string {
	return t.engine.Name()
}

// Transcribe writes pcm to a temporary WAV file and runs the engine on it.
// Every failure is a models.ErrTranscription.
func (t *Transcriber) Transcribe(ctx context.Context, pcm models.PcmBuffer) (models.Transcript, error) {
	if pcm.Empty() {
		return models.Transcript{}, models.NewTranscriptionError(ErrEmptyAudio)
	}

	scope := t.scratch.Scope("stt")
	defer scope.Release()

	path, err := t.materialize(scope, pcm)
	if err != nil {
		return models.Transcript{}, models.NewTranscriptionError(err)
	}

	start := time.Now()
	transcript, err := t.engine.Transcribe(ctx, path)
	elapsed := time.Since(start)
	t.metrics.RecordSTT(t.engine.Name(), elapsed.Seconds(), err)

	if err != nil {
		t.logger.Warn().Err(err).Dur("elapsed", elapsed).Msg("Engine failed to transcribe audio")
		return models.Transcript{}, models.NewTranscriptionError(fmt.Errorf("%s: %w", t.engine.Name(), err))
	}

	transcript.Text = strings.TrimSpace(transcript.Text)

	t.logger.Debug().
		Dur("audio", pcm.Duration()).
		Dur("elapsed", elapsed).
		Int("chars", len(transcript.Text)).
		Msg("Audio transcribed")

	return transcript, nil
}

func (t *Transcriber) materialize(scope *scratch.Scope, pcm models.PcmBuffer) (string, error) {
	f, err := scope.Create(".wav")
	if err != nil {
		return "", err
	}
	if err := decode.WriteWAV(f, pcm); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close WAV file: %w", err)
	}
	return f.Name(), nil
}
