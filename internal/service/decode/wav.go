package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

const wavFormatPCM = 1

var errNotWAV = errors.New("not a RIFF/WAVE container")

// WAVStrategy decodes a self-describing WAV buffer at its native sample rate.
type WAVStrategy struct{}

// NewWAVStrategy returns the direct container strategy.
func NewWAVStrategy() *WAVStrategy { return &WAVStrategy{} }

func (s *WAVStrategy) Name() string { return "wav" }

// Decode parses integer PCM WAV data of any bit depth and channel count and
// returns mono 16-bit samples.
func (s *WAVStrategy) Decode(_ context.Context, chunk models.AudioChunk) (models.PcmBuffer, error) {
	d := wav.NewDecoder(bytes.NewReader(chunk.Data))
	if !d.IsValidFile() {
		return models.PcmBuffer{}, errNotWAV
	}
	if d.WavAudioFormat != wavFormatPCM {
		return models.PcmBuffer{}, fmt.Errorf("unsupported WAV audio format %d", d.WavAudioFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return models.PcmBuffer{}, fmt.Errorf("read WAV samples: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return models.PcmBuffer{}, errors.New("WAV header carries no sample rate")
	}

	samples, err := toInt16(buf.Data, int(d.BitDepth))
	if err != nil {
		return models.PcmBuffer{}, err
	}

	return models.PcmBuffer{
		SampleRate: buf.Format.SampleRate,
		Channels:   1,
		Samples:    downmix(samples, buf.Format.NumChannels),
	}, nil
}

func toInt16(data []int, bitDepth int) ([]int16, error) {
	out := make([]int16, len(data))
	switch bitDepth {
	case 8:
		for i, v := range data {
			out[i] = int16((v - 128) << 8)
		}
	case 16:
		for i, v := range data {
			out[i] = int16(v)
		}
	case 24:
		for i, v := range data {
			out[i] = int16(v >> 8)
		}
	case 32:
		for i, v := range data {
			out[i] = int16(v >> 16)
		}
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	return out, nil
}

// WriteWAV writes pcm as a mono 16-bit WAV file.
func WriteWAV(w io.WriteSeeker, pcm models.PcmBuffer) error {
	enc := wav.NewEncoder(w, pcm.SampleRate, models.BitsPerSample, 1, wavFormatPCM)

	data := make([]int, len(pcm.Samples))
	for i, s := range pcm.Samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: pcm.SampleRate},
		Data:           data,
		SourceBitDepth: models.BitsPerSample,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize WAV header: %w", err)
	}
	return nil
}
