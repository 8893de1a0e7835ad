package batch

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/scratch"
	"github.com/Pavankumar07s/Pict-call/internal/service/decode"
	"github.com/Pavankumar07s/Pict-call/internal/service/pipeline"
	"github.com/Pavankumar07s/Pict-call/internal/service/risk"
	"github.com/Pavankumar07s/Pict-call/internal/service/stt"
	"github.com/Pavankumar07s/Pict-call/internal/service/stt/mock"
)

type fakeDecoder struct {
	contentType string
	calls       int
}

func (d *fakeDecoder) Decode(_ context.Context, chunk models.AudioChunk) (models.PcmBuffer, error) {
	d.calls++
	d.contentType = chunk.ContentType
	return models.PcmBuffer{SampleRate: 16000, Channels: 1, Samples: []int16{1, -1, 2}}, nil
}

type fakeTranscriber struct {
	transcript models.Transcript
	err        error
}

func (t *fakeTranscriber) Transcribe(context.Context, models.PcmBuffer) (models.Transcript, error) {
	return t.transcript, t.err
}

type recordingPublisher struct {
	events []models.AnalysisEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.AnalysisEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func TestAnalyze_Success(t *testing.T) {
	dec := &fakeDecoder{}
	tr := &fakeTranscriber{transcript: models.Transcript{Text: "hello sir please share the OTP"}}
	pub := &recordingPublisher{}
	c := NewController(pipeline.New(dec, tr, risk.NewScorer(), pipeline.DefaultLimits()), pub)

	result, err := c.Analyze(context.Background(), "Call.MP3", []byte("ID3..."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dec.contentType != "audio/mpeg" {
		t.Errorf("expected content type from extension, got %q", dec.contentType)
	}
	if !result.Suspicious || !slices.Equal(result.DetectedKeywords, []string{"otp"}) {
		t.Errorf("unexpected verdict: %+v", result)
	}
	if !result.SegmentsApproximate {
		t.Error("expected estimated segments to be flagged approximate")
	}
	want := models.SegmentTimestamp{Start: 10, End: 12, Text: "OTP", Type: models.CategoryOTPRequest}
	if len(result.Segments) != 1 || result.Segments[0] != want {
		t.Errorf("expected segment %+v, got %+v", want, result.Segments)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.EventType != models.EventTypeBatchAnalysis || ev.RequestID == "" || ev.Transcript != "hello sir please share the OTP" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestAnalyze_UnsupportedExtension(t *testing.T) {
	dec := &fakeDecoder{}
	c := NewController(pipeline.New(dec, &fakeTranscriber{}, risk.NewScorer(), pipeline.DefaultLimits()), nil)

	for _, name := range []string{"notes.txt", "audio", "clip.wav.exe"} {
		_, err := c.Analyze(context.Background(), name, []byte("data"))
		if !errors.Is(err, models.ErrProtocol) || !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: expected unsupported format protocol error, got %v", name, err)
		}
	}
	if dec.calls != 0 {
		t.Errorf("rejected uploads should not be decoded, got %d calls", dec.calls)
	}
}

func TestAnalyze_ZeroByteFile(t *testing.T) {
	dir := scratch.New(t.TempDir())
	dec, err := decode.New(decode.DefaultConfig(), dir)
	if err != nil {
		t.Fatalf("decode.New: %v", err)
	}
	engine := mock.New()
	c := NewController(pipeline.New(dec, stt.New(engine, dir), risk.NewScorer(), pipeline.DefaultLimits()), nil)

	result, err := c.Analyze(context.Background(), "empty.wav", nil)
	if !errors.Is(err, models.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if result.Reasons != nil || result.Suspicious {
		t.Errorf("expected no partial result, got %+v", result)
	}
	if engine.Calls() != 0 {
		t.Error("engine should not run for an empty file")
	}
	if dir.Created() != 0 {
		t.Errorf("no temp files expected for empty input, created %d", dir.Created())
	}
}

func TestAnalyze_TranscriptionFailure(t *testing.T) {
	pub := &recordingPublisher{}
	tr := &fakeTranscriber{err: models.NewTranscriptionError(errors.New("engine fault"))}
	c := NewController(pipeline.New(&fakeDecoder{}, tr, risk.NewScorer(), pipeline.DefaultLimits()), pub)

	if _, err := c.Analyze(context.Background(), "call.wav", []byte("RIFF")); !errors.Is(err, models.ErrTranscription) {
		t.Errorf("expected transcription error, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Error("failed requests should not be published")
	}
}

func TestAnalyze_AlignedWords(t *testing.T) {
	tr := &fakeTranscriber{transcript: models.Transcript{
		Text:  "urgent",
		Words: []models.Word{{Text: "urgent", Start: 3_000_000_000, End: 3_500_000_000}},
	}}
	c := NewController(pipeline.New(&fakeDecoder{}, tr, risk.NewScorer(), pipeline.DefaultLimits()), nil)

	result, err := c.Analyze(context.Background(), "call.flac", []byte("fLaC"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SegmentsApproximate {
		t.Error("aligned words should not be flagged approximate")
	}
	if len(result.Segments) != 1 || result.Segments[0].Start != 3 || result.Segments[0].End != 3.5 {
		t.Errorf("unexpected segments: %+v", result.Segments)
	}
}
