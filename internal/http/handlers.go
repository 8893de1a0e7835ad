package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Pavankumar07s/Pict-call/internal/models"
	"github.com/Pavankumar07s/Pict-call/internal/observability/logging"
	"github.com/Pavankumar07s/Pict-call/internal/observability/metrics"
	"github.com/Pavankumar07s/Pict-call/internal/service/batch"
	"github.com/Pavankumar07s/Pict-call/internal/service/session"
)

const (
	defaultMaxUploadBytes = 25 << 20
	defaultMaxChunkBytes  = 10 << 20

	// multipartMemory is held in memory before parts spill to disk.
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind"`
}

type handlers struct {
	batch          BatchAnalyzer
	sessions       SessionRunner
	maxUploadBytes int64
	maxChunkBytes  int64
	logger         zerolog.Logger
	metrics        *metrics.Metrics
}

func newHandlers(opts Options) *handlers {
	h := &handlers{
		batch:          opts.Batch,
		sessions:       opts.Sessions,
		maxUploadBytes: opts.MaxUploadBytes,
		maxChunkBytes:  opts.MaxChunkBytes,
		logger:         logging.WithComponent("http"),
		metrics:        metrics.DefaultMetrics,
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = defaultMaxUploadBytes
	}
	if h.maxChunkBytes <= 0 {
		h.maxChunkBytes = defaultMaxChunkBytes
	}
	return h
}

// analyzeFile handles POST /analyze with the audio in multipart field "file".
func (h *handlers) analyzeFile(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With().Str("requestId", middleware.GetReqID(r.Context())).Logger()

	data, header, err := readPart(w, r, "file", h.maxUploadBytes)
	if err != nil {
		status := h.writeError(w, err)
		h.metrics.RecordBatchRequest(status)
		logger.Warn().Err(err).Int("status", status).Msg("Rejected upload")
		return
	}

	result, err := h.batch.Analyze(r.Context(), header.Filename, data)
	if err != nil {
		status := h.writeError(w, err)
		h.metrics.RecordBatchRequest(status)
		logger.Warn().Err(err).Int("status", status).Str("filename", header.Filename).Msg("Batch analysis failed")
		return
	}

	h.metrics.RecordBatchRequest(http.StatusOK)
	writeJSON(w, http.StatusOK, result.BatchResponse())
}

// analyzeChunk handles POST /analyze-stream: one chunk in multipart field
// "audio_chunk", answered with the streaming result shape. Chunk failures yield a
// degraded result, as on a live session.
func (h *handlers) analyzeChunk(w http.ResponseWriter, r *http.Request) {
	data, header, err := readPart(w, r, "audio_chunk", h.maxChunkBytes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	contentType := r.FormValue("content_type")
	if ct := header.Header.Get("Content-Type"); contentType == "" && ct != "application/octet-stream" {
		contentType = ct
	}
	msg := session.Message{
		Payload:     data,
		Encoding:    session.EncodingRaw,
		ContentType: contentType,
	}
	result, err := h.sessions.Once(r.Context(), session.NewID(), msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Chunk analysis failed")
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result.StreamResponse())
}

var errMissingPart = errors.New("missing multipart field")

// readPart reads one file part of a multipart body. The part may be at most
// limit bytes; the body gets a little headroom for the multipart framing.
func readPart(w http.ResponseWriter, r *http.Request, field string, limit int64) ([]byte, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, nil, models.NewProtocolError(err)
	}

	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, models.NewProtocolError(fmt.Errorf("%w %q", errMissingPart, field))
	}
	defer f.Close()

	if header.Size > limit {
		return nil, nil, &http.MaxBytesError{Limit: limit}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, models.NewProtocolError(err)
	}
	return data, header, nil
}

// writeError maps an error to its status and writes the body. It returns the status.
func (h *handlers) writeError(w http.ResponseWriter, err error) int {
	status, detail := statusFor(err)
	writeJSON(w, status, errorResponse{Detail: detail, Kind: models.KindName(err)})
	return status
}

// statusFor maps error kinds to HTTP status: malformed input is a client error,
// engine faults are upstream errors and misconfiguration is an internal error.
func statusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, batch.ErrUnsupportedFormat):
		return http.StatusBadRequest, "Unsupported audio format"
	case errors.Is(err, models.ErrProtocol), errors.Is(err, models.ErrDecode):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrTranscription):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, models.ErrConfiguration):
		return http.StatusInternalServerError, "Service misconfigured"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
