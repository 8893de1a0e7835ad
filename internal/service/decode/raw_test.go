package decode

import (
	"context"
	"testing"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

func TestRawStrategy_Mono(t *testing.T) {
	s := NewRawStrategy(24000, 1)

	// 0x0100 = 256, 0xFFFF = -1, trailing odd byte ignored
	pcm, err := s.Decode(context.Background(), models.AudioChunk{Data: []byte{0x00, 0x01, 0xFF, 0xFF, 0x7F}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pcm.SampleRate != 24000 || pcm.Channels != 1 {
		t.Errorf("unexpected format: %+v", pcm)
	}
	if len(pcm.Samples) != 2 || pcm.Samples[0] != 256 || pcm.Samples[1] != -1 {
		t.Errorf("unexpected samples: %v", pcm.Samples)
	}
}

func TestRawStrategy_StereoDownmix(t *testing.T) {
	s := NewRawStrategy(16000, 2)

	// frames (100, 300) and (-100, -300)
	data := []byte{100, 0, 44, 1, 156, 255, 212, 254}
	pcm, err := s.Decode(context.Background(), models.AudioChunk{Data: data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pcm.Samples) != 2 || pcm.Samples[0] != 200 || pcm.Samples[1] != -200 {
		t.Errorf("unexpected downmix: %v", pcm.Samples)
	}
}

func TestRawStrategy_TooShort(t *testing.T) {
	s := NewRawStrategy(16000, 2)
	if _, err := s.Decode(context.Background(), models.AudioChunk{Data: []byte{1, 2, 3}}); err == nil {
		t.Error("expected error for input shorter than one frame")
	}
}
