//go:build whispercpp

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog/log"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/service/decode"
)

// Native implements stt.Engine with the whisper.cpp CGO bindings. The model is
// loaded once and shared; every call gets its own context, so concurrent calls
// do not interfere.
type Native struct {
	model    whisperlib.Model
	language string
}

// NewNative loads the model at modelPath. The caller must Close it.
func NewNative(modelPath, language string) (*Native, error) {
	if modelPath == "" {
		return nil, models.NewConfigurationError(errors.New("whisper: model path must not be empty"))
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}
	if language == "" {
		language = defaultLanguage
	}
	return &Native{model: model, language: language}, nil
}

// Name returns "whisper-native".
func (n *Native) Name() string { return "whisper-native" }

// Transcribe reads the WAV file, runs inference, and joins the segment texts.
func (n *Native) Transcribe(ctx context.Context, path string) (models.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("whisper: read audio: %w", err)
	}
	pcm, err := decode.NewWAVStrategy().Decode(ctx, models.AudioChunk{Data: data, ContentType: models.ContentTypeWAV})
	if err != nil {
		return models.Transcript{}, fmt.Errorf("whisper: parse audio: %w", err)
	}
	if pcm.SampleRate != whisperlib.SampleRate {
		return models.Transcript{}, fmt.Errorf("whisper: expected %d Hz audio, got %d Hz", whisperlib.SampleRate, pcm.SampleRate)
	}

	wctx, err := n.model.NewContext()
	if err != nil {
		return models.Transcript{}, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(n.language); err != nil {
		log.Warn().Err(err).Str("language", n.language).Msg("whisper: failed to set language, using default")
	}

	if err := wctx.Process(toFloat32(pcm.Samples), nil, nil, nil); err != nil {
		return models.Transcript{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Transcript{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return models.Transcript{Text: strings.Join(parts, " ")}, nil
}

// Close releases the model.
func (n *Native) Close() error {
	if n.model != nil {
		return n.model.Close()
	}
	return nil
}

func toFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}
