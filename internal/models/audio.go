// Package models defines the data structures that flow through the analysis pipeline
// and the shapes written back to clients and to Kafka.
package models

import "time"

// BitsPerSample is the only sample encoding the pipeline works with: 16-bit signed linear PCM.
const BitsPerSample = 16

// Content types understood by the decoder. Anything else is treated as an opaque container.
const (
	ContentTypeWAV = "audio/wav"
	ContentTypePCM = "audio/pcm"
)

// AudioChunk is one inbound unit of audio: opaque bytes plus the declared or inferred
// content type. It is owned by the call that received it and discarded after decode.
type AudioChunk struct {
	Data        []byte
	ContentType string
}

// PcmBuffer is decoded mono 16-bit PCM. Buffers are never mutated once produced;
// operations that change samples return a new buffer.
type PcmBuffer struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Len returns the number of samples per channel.
func (b PcmBuffer) Len() int {
	if b.Channels <= 1 {
		return len(b.Samples)
	}
	return len(b.Samples) / b.Channels
}

// Empty reports whether the buffer carries no samples.
func (b PcmBuffer) Empty() bool {
	return len(b.Samples) == 0
}

// Duration is the playback length of the buffer.
func (b PcmBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Len()) * time.Second / time.Duration(b.SampleRate)
}
