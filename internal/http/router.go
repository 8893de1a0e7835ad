package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Pavankumar07s/Pict-call/internal/app"
	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/service/session"
)

// BatchAnalyzer analyzes one uploaded file.
type BatchAnalyzer interface {
	Analyze(ctx context.Context, filename string, data []byte) (models.AnalysisResult, error)
}

// SessionRunner runs streamed chunks through the per-chunk pipeline.
type SessionRunner interface {
	Run(ctx context.Context, sessionID string, t session.Transport) (session.Summary, error)
	Once(ctx context.Context, sessionID string, msg session.Message) (models.AnalysisResult, error)
}

// Options configures the HTTP handler.
type Options struct {
	Batch          BatchAnalyzer
	Sessions       SessionRunner
	Ready          func() bool
	MaxUploadBytes int64
	MaxChunkBytes  int64
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	return NewHandler(Options{
		Batch:          application.Batch,
		Sessions:       application.Sessions,
		Ready:          application.Ready,
		MaxUploadBytes: application.Cfg.Limits.MaxUploadBytes,
		MaxChunkBytes:  application.Cfg.Limits.MaxChunkBytes,
	})
}

// NewHandler builds the chi router over the given collaborators.
func NewHandler(opts Options) http.Handler {
	h := newHandlers(opts)
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready != nil && !opts.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Post("/analyze", h.analyzeFile)
	r.Post("/analyze-stream", h.analyzeChunk)
	r.Get("/ws", h.stream)

	return r
}
