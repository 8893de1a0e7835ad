package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesKindAndCause(t *testing.T) {
	cause := errors.New("ffmpeg exited with status 1")
	err := NewDecodeError(cause)

	if !errors.Is(err, ErrDecode) {
		t.Error("expected errors.Is(err, ErrDecode)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is(err, cause)")
	}
	if errors.Is(err, ErrTranscription) {
		t.Error("decode error must not match ErrTranscription")
	}

	wrapped := fmt.Errorf("chunk 3: %w", err)
	if !errors.Is(wrapped, ErrDecode) {
		t.Error("expected kind to survive further wrapping")
	}
}

func TestError_Message(t *testing.T) {
	err := NewTranscriptionError(errors.New("engine crashed"))
	if got, want := err.Error(), "transcription error: engine crashed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &Error{Kind: ErrProtocol}
	if got, want := bare.Error(), "protocol error"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindName(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, "none"},
		{NewDecodeError(errors.New("x")), "decode"},
		{NewTranscriptionError(errors.New("x")), "transcription"},
		{NewProtocolError(errors.New("x")), "protocol"},
		{NewConfigurationError(errors.New("x")), "configuration"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		if got := KindName(tt.err); got != tt.expected {
			t.Errorf("KindName(%v) = %q, want %q", tt.err, got, tt.expected)
		}
	}
}
