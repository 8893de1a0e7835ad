package decode

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

// RawStrategy reads the bytes as headerless little-endian s16 PCM at a fixed rate.
type RawStrategy struct {
	sampleRate int
	channels   int
}

// NewRawStrategy returns the last-resort strategy for headerless chunks.
func NewRawStrategy(sampleRate, channels int) *RawStrategy {
	return &RawStrategy{sampleRate: sampleRate, channels: channels}
}

func (s *RawStrategy) Name() string { return "raw" }

// Decode interprets chunk.Data as interleaved s16le frames and downmixes to mono.
// A trailing partial frame is ignored.
func (s *RawStrategy) Decode(_ context.Context, chunk models.AudioChunk) (models.PcmBuffer, error) {
	frameBytes := 2 * s.channels
	if len(chunk.Data) < frameBytes {
		return models.PcmBuffer{}, fmt.Errorf("need at least %d bytes for one frame, got %d", frameBytes, len(chunk.Data))
	}
	return models.PcmBuffer{
		SampleRate: s.sampleRate,
		Channels:   1,
		Samples:    downmix(bytesToSamples(chunk.Data), s.channels),
	}, nil
}

// bytesToSamples converts s16le bytes to samples, ignoring a trailing odd byte.
func bytesToSamples(data []byte) []int16 {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := range n {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return samples
}

// downmix averages interleaved channels into one. Incomplete trailing frames are dropped.
func downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for i := range frames {
		var sum int
		for ch := range channels {
			sum += int(samples[i*channels+ch])
		}
		mono[i] = int16(sum / channels)
	}
	return mono
}
