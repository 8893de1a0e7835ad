package decode

import (
	"context"
	"math"
	"testing"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/scratch"
)

// sine returns n samples of a 440 Hz tone at rate.
func sine(rate, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return out
}

func TestResample(t *testing.T) {
	tests := []struct {
		name     string
		in       models.PcmBuffer
		rate     int
		wantRate int
		wantLen  int
	}{
		{"downsample 44.1k", models.PcmBuffer{SampleRate: 44100, Channels: 1, Samples: make([]int16, 44100)}, 16000, 16000, 16000},
		{"downsample 24k", models.PcmBuffer{SampleRate: 24000, Channels: 1, Samples: make([]int16, 2400)}, 16000, 16000, 1600},
		{"upsample 8k", models.PcmBuffer{SampleRate: 8000, Channels: 1, Samples: make([]int16, 800)}, 16000, 16000, 1600},
		{"same rate", models.PcmBuffer{SampleRate: 16000, Channels: 1, Samples: make([]int16, 10)}, 16000, 16000, 10},
		{"rate unset", models.PcmBuffer{SampleRate: 48000, Channels: 1, Samples: make([]int16, 10)}, 0, 48000, 10},
		{"tiny buffer keeps a sample", models.PcmBuffer{SampleRate: 48000, Channels: 1, Samples: []int16{7}}, 16000, 16000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(tt.in, tt.rate)
			if got.SampleRate != tt.wantRate {
				t.Errorf("expected rate %d, got %d", tt.wantRate, got.SampleRate)
			}
			if len(got.Samples) != tt.wantLen {
				t.Errorf("expected %d samples, got %d", tt.wantLen, len(got.Samples))
			}
		})
	}
}

func TestResample_Interpolates(t *testing.T) {
	in := models.PcmBuffer{SampleRate: 8000, Channels: 1, Samples: []int16{0, 100, 200}}

	got := Resample(in, 16000)

	want := []int16{0, 50, 100, 150, 200, 200}
	if len(got.Samples) != len(want) {
		t.Fatalf("expected %d samples, got %v", len(want), got.Samples)
	}
	for i := range want {
		if got.Samples[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], got.Samples[i])
		}
	}
}

func TestDecoder_OutputRate(t *testing.T) {
	data := encodeWAV(t, models.PcmBuffer{SampleRate: 44100, Channels: 1, Samples: sine(44100, 4410)})

	d := NewWithStrategies(DefaultReferencePeak, NewWAVStrategy()).WithOutputRate(16000)
	pcm, err := d.Decode(context.Background(), models.AudioChunk{Data: data, ContentType: models.ContentTypeWAV})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pcm.SampleRate != 16000 {
		t.Errorf("expected output rate 16000, got %d", pcm.SampleRate)
	}
	if len(pcm.Samples) != 1600 {
		t.Errorf("expected 1600 samples for 100ms, got %d", len(pcm.Samples))
	}
	if got := Peak(pcm.Samples); got != int(DefaultReferencePeak) {
		t.Errorf("expected resampled output normalized to %d, got %d", DefaultReferencePeak, got)
	}
}

func TestNew_UsesConfiguredOutputRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputSampleRate = 8000

	d, err := New(cfg, scratch.New(t.TempDir()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.OutputRate() != 8000 {
		t.Errorf("expected output rate 8000, got %d", d.OutputRate())
	}
}
