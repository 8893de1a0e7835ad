// Package google provides a Google Cloud Speech-to-Text engine.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

// Config holds recognition settings.
type Config struct {
	LanguageCode string
	Model        string
	Punctuation  bool
}

// DefaultConfig returns default recognition settings.
func DefaultConfig() Config {
	return Config{
		LanguageCode: "en-US",
		Punctuation:  false,
	}
}

// recognizer is the subset of speech.Client the engine uses.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type clientRecognizer struct {
	client *speech.Client
}

func (c clientRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

func (c clientRecognizer) Close() error {
	return c.client.Close()
}

// Engine implements stt.Engine with synchronous recognition. Word time offsets are
// requested so batch results can carry real keyword positions.
type Engine struct {
	client recognizer
	cfg    Config
}

// New creates a Google engine.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{client: clientRecognizer{client: c}, cfg: cfg}, nil
}

func newWithRecognizer(r recognizer, cfg Config) *Engine {
	return &Engine{client: r, cfg: cfg}
}

// Name returns "google".
func (e *Engine) Name() string { return "google" }

// Transcribe sends the WAV file at path as LINEAR16 content. The sample rate is
// taken from the WAV header.
func (e *Engine) Transcribe(ctx context.Context, path string) (models.Transcript, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("read audio: %w", err)
	}

	resp, err := e.client.Recognize(ctx, e.request(audio))
	if err != nil {
		return models.Transcript{}, err
	}
	return toTranscript(resp), nil
}

func (e *Engine) request(audio []byte) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			AudioChannelCount:          1,
			LanguageCode:               e.cfg.LanguageCode,
			Model:                      e.cfg.Model,
			EnableWordTimeOffsets:      true,
			EnableAutomaticPunctuation: e.cfg.Punctuation,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}
}

// Close releases the client connection.
func (e *Engine) Close() error {
	return e.client.Close()
}

// toTranscript joins the top alternative of every result.
func toTranscript(resp *speechpb.RecognizeResponse) models.Transcript {
	var (
		parts []string
		words []models.Word
	)
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]
		if text := strings.TrimSpace(alt.GetTranscript()); text != "" {
			parts = append(parts, text)
		}
		for _, w := range alt.GetWords() {
			words = append(words, models.Word{
				Text:  w.GetWord(),
				Start: w.GetStartTime().AsDuration(),
				End:   w.GetEndTime().AsDuration(),
			})
		}
	}
	return models.Transcript{Text: strings.Join(parts, " "), Words: words}
}
