//go:build !whispercpp

package whisper

import (
	"context"
	"errors"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

var errNativeUnavailable = errors.New("whisper-native requires a build with -tags whispercpp")

// Native is unavailable in builds without the whispercpp tag.
type Native struct{}

// NewNative always fails in this build.
func NewNative(string, string) (*Native, error) {
	return nil, errNativeUnavailable
}

func (n *Native) Name() string { return "whisper-native" }

func (n *Native) Transcribe(context.Context, string) (models.Transcript, error) {
	return models.Transcript{}, errNativeUnavailable
}

func (n *Native) Close() error { return nil }
