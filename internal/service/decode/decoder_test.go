package decode

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

type fakeStrategy struct {
	name  string
	pcm   models.PcmBuffer
	err   error
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Decode(_ context.Context, _ models.AudioChunk) (models.PcmBuffer, error) {
	f.calls++
	return f.pcm, f.err
}

func chunk(data ...byte) models.AudioChunk {
	return models.AudioChunk{Data: data, ContentType: models.ContentTypePCM}
}

func TestDecoder_FirstSuccessWins(t *testing.T) {
	first := &fakeStrategy{name: "first", err: errors.New("bad header")}
	second := &fakeStrategy{name: "second", pcm: models.PcmBuffer{SampleRate: 16000, Channels: 1, Samples: []int16{100, -200, 50}}}
	third := &fakeStrategy{name: "third", pcm: models.PcmBuffer{SampleRate: 8000, Channels: 1, Samples: []int16{1}}}

	d := NewWithStrategies(DefaultReferencePeak, first, second, third)
	pcm, err := d.Decode(context.Background(), chunk(1, 2, 3, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pcm.SampleRate != 16000 {
		t.Errorf("expected sample rate from second strategy, got %d", pcm.SampleRate)
	}
	if third.calls != 0 {
		t.Errorf("expected third strategy to be skipped, called %d times", third.calls)
	}
	if got := Peak(pcm.Samples); got != int(DefaultReferencePeak) {
		t.Errorf("expected output normalized to %d, got peak %d", DefaultReferencePeak, got)
	}
}

func TestDecoder_AllStrategiesFail(t *testing.T) {
	d := NewWithStrategies(DefaultReferencePeak,
		&fakeStrategy{name: "wav", err: errors.New("not a RIFF file")},
		&fakeStrategy{name: "ffmpeg", err: errors.New("exit status 1")},
		&fakeStrategy{name: "raw", err: errors.New("too short")},
	)

	_, err := d.Decode(context.Background(), chunk(1))
	if !errors.Is(err, models.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	for _, want := range []string{"wav: not a RIFF file", "ffmpeg: exit status 1", "raw: too short"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %q", want, err.Error())
		}
	}
}

func TestDecoder_EmptyOutputFallsThrough(t *testing.T) {
	empty := &fakeStrategy{name: "empty", pcm: models.PcmBuffer{SampleRate: 16000, Channels: 1}}
	good := &fakeStrategy{name: "good", pcm: models.PcmBuffer{SampleRate: 24000, Channels: 1, Samples: []int16{10}}}

	d := NewWithStrategies(DefaultReferencePeak, empty, good)
	pcm, err := d.Decode(context.Background(), chunk(0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pcm.SampleRate != 24000 || len(pcm.Samples) != 1 {
		t.Errorf("expected result of second strategy, got %+v", pcm)
	}
}

func TestDecoder_EmptyInput(t *testing.T) {
	s := &fakeStrategy{name: "any", pcm: models.PcmBuffer{SampleRate: 16000, Samples: []int16{1}}}
	d := NewWithStrategies(DefaultReferencePeak, s)

	_, err := d.Decode(context.Background(), models.AudioChunk{})
	if !errors.Is(err, models.ErrDecode) {
		t.Fatalf("expected decode error for empty input, got %v", err)
	}
	if s.calls != 0 {
		t.Errorf("expected no strategy to run for empty input, got %d calls", s.calls)
	}
}

func TestDecoder_NoStrategies(t *testing.T) {
	d := NewWithStrategies(DefaultReferencePeak)
	if _, err := d.Decode(context.Background(), chunk(1, 2)); !errors.Is(err, models.ErrDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestNew_DefaultChainOrder(t *testing.T) {
	d, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := strings.Join(d.Strategies(), ",")
	if got != "wav,ffmpeg,raw" {
		t.Errorf("expected wav,ffmpeg,raw, got %s", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero input rate", func(c *Config) { c.InputSampleRate = 0 }},
		{"negative channels", func(c *Config) { c.InputChannels = -1 }},
		{"zero output rate", func(c *Config) { c.OutputSampleRate = 0 }},
		{"zero peak", func(c *Config) { c.ReferencePeak = 0 }},
		{"missing ffmpeg", func(c *Config) { c.FFmpegPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
			if _, err := New(cfg, nil); !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("expected New to reject config, got %v", err)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}
