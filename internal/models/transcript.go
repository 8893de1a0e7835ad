package models

import "time"

// Word is a single recognised word with its offset from the start of the audio.
type Word struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Transcript is the text produced by a transcription engine. An empty Text is a valid
// result for silence or non-speech audio.
type Transcript struct {
	Text  string
	Words []Word
}

// Aligned reports whether the engine supplied real per-word timings.
func (t Transcript) Aligned() bool {
	return len(t.Words) > 0
}
