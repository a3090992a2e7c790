package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/josinaldojr/book-rag/internal/rag"
	"go.uber.org/zap"
)

// maxBodyBytes caps every decoded request body.
const maxBodyBytes = 8 << 20

// Pipeline is what the handlers need from rag.Service.
type Pipeline interface {
	Ask(ctx context.Context, req rag.AskRequest) (*rag.AskResponse, error)
	Ingest(ctx context.Context, chunks []string) (int, error)
	EnsureCollection(ctx context.Context, vectorSize int) error
	ProbeModel(ctx context.Context) rag.ProbeResult
}

type Handler struct {
	ragService Pipeline
	timeout    time.Duration
	logger     *zap.Logger
}

func NewHandler(ragService Pipeline, timeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{ragService: ragService, timeout: timeout, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ModelHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	writeJSON(w, http.StatusOK, h.ragService.ProbeModel(ctx))
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req rag.AskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	resp, err := h.ragService.Ask(ctx, req)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req rag.IngestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Chunks) == 0 {
		writeError(w, http.StatusBadRequest, "chunks is required")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	n, err := h.ragService.Ingest(ctx, req.Chunks)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rag.IngestResponse{Ingested: n})
}

func (h *Handler) EnsureCollection(w http.ResponseWriter, r *http.Request) {
	var req rag.CollectionRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	if err := h.ragService.EnsureCollection(ctx, req.VectorSize); err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case rag.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rag.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a size-limited JSON body into v and writes the error
// response itself when that fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid json body")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
