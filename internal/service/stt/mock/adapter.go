// Package mock provides a scripted transcription engine for tests and local runs
// without model files or cloud credentials.
package mock

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Pavankumar07s/Pict-call/internal/models"
)

// Response is one scripted engine answer.
type Response struct {
	Text  string
	Words []models.Word
	Err   error

	// Delay simulates engine latency. The context still cancels it.
	Delay time.Duration

	// Wait, when set, blocks the call until it is closed or the context ends.
	Wait <-chan struct{}
}

// DefaultResponses alternates between ordinary speech and common scam phrasing.
var DefaultResponses = []Response{
	{Text: "Hello, am I speaking with the account holder?"},
	{Text: "This is the technical support team calling about your computer"},
	{Text: "Please install AnyDesk so we can fix it remotely"},
	{Text: "Read me the verification code we just sent you, it is urgent"},
	{Text: "Thank you for your time, goodbye"},
}

// Engine answers from a script, cycling when it runs out. It checks that the
// audio file exists, as a real engine would.
type Engine struct {
	mu        sync.Mutex
	responses []Response
	calls     int
	paths     []string
	entered   chan string
}

// New creates an engine that cycles through responses. With no responses it
// uses DefaultResponses.
func New(responses ...Response) *Engine {
	if len(responses) == 0 {
		responses = DefaultResponses
	}
	return &Engine{
		responses: responses,
		entered:   make(chan string, 64),
	}
}

// Name returns "mock".
func (e *Engine) Name() string { return "mock" }

// Transcribe returns the next scripted response.
func (e *Engine) Transcribe(ctx context.Context, path string) (models.Transcript, error) {
	if _, err := os.Stat(path); err != nil {
		return models.Transcript{}, fmt.Errorf("open audio: %w", err)
	}

	e.mu.Lock()
	resp := e.responses[e.calls%len(e.responses)]
	e.calls++
	e.paths = append(e.paths, path)
	e.mu.Unlock()

	select {
	case e.entered <- path:
	default:
	}

	if resp.Wait != nil {
		select {
		case <-resp.Wait:
		case <-ctx.Done():
			return models.Transcript{}, ctx.Err()
		}
	}
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return models.Transcript{}, ctx.Err()
		}
	}

	if resp.Err != nil {
		return models.Transcript{}, resp.Err
	}
	return models.Transcript{Text: resp.Text, Words: resp.Words}, nil
}

// Entered delivers the path of each call as it starts. Sends never block, so
// only the first 64 unread calls are delivered.
func (e *Engine) Entered() <-chan string {
	return e.entered
}

// Calls returns how many times Transcribe was invoked.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Paths returns the audio paths seen so far.
func (e *Engine) Paths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.paths...)
}
