package models

import "errors"

// Error kinds. Every failure produced by the pipeline wraps exactly one of these.
var (
	ErrDecode        = errors.New("decode error")
	ErrTranscription = errors.New("transcription error")
	ErrProtocol      = errors.New("protocol error")
	ErrConfiguration = errors.New("configuration error")
)

// Error attaches an error kind to its underlying cause. errors.Is matches both
// the kind and anything in the cause chain.
type Error struct {
	Kind  error
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NewDecodeError reports that no decode strategy produced samples.
func NewDecodeError(cause error) error {
	return &Error{Kind: ErrDecode, Cause: cause}
}

// NewTranscriptionError reports an engine fault or an empty input buffer.
func NewTranscriptionError(cause error) error {
	return &Error{Kind: ErrTranscription, Cause: cause}
}

// NewProtocolError reports a malformed transport envelope.
func NewProtocolError(cause error) error {
	return &Error{Kind: ErrProtocol, Cause: cause}
}

// NewConfigurationError reports a service misconfiguration. It is never recoverable.
func NewConfigurationError(cause error) error {
	return &Error{Kind: ErrConfiguration, Cause: cause}
}

// KindName returns a short label for the kind of err, suitable for metrics and logs.
func KindName(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}
