package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/orbis-edu/orbis/internal/regulation"
	"github.com/orbis-edu/orbis/internal/sse"
)

// RegulationService is the regulation surface the handler needs.
type RegulationService interface {
	ChunkDocument(ctx context.Context, documentID int64, size, overlap int) (int, error)
	Answer(ctx context.Context, query string, emit func(regulation.AnswerEvent) error) error
}

// regulationHandler serves document chunking and grounded Q&A.
type regulationHandler struct {
	svc    RegulationService
	logger *slog.Logger
}

// RegisterRoutes registers regulation routes on the given mux.
func (h *regulationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/regulations/chunk", h.chunk)
	mux.HandleFunc("GET /api/regulations/ask", h.ask)
}

// chunkRequest is the POST /api/regulations/chunk body.
type chunkRequest struct {
	DocumentID int64 `json:"document_id"`
	ChunkSize  int   `json:"chunk_size"`
	Overlap    int   `json:"overlap"`
}

// chunk handles POST /api/regulations/chunk.
func (h *regulationHandler) chunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if req.DocumentID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_document_id", "document_id is required")
		return
	}

	count, err := h.svc.ChunkDocument(r.Context(), req.DocumentID, req.ChunkSize, req.Overlap)
	if err != nil {
		if errors.Is(err, regulation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document_not_found", err.Error())
			return
		}
		h.logger.Error("chunking failed", "error", err, "document_id", req.DocumentID)
		writeError(w, http.StatusInternalServerError, "chunking_failed", "chunking failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Successfully created %d chunks for document %d", count, req.DocumentID),
		"count":   count,
	})
}

// ask handles GET /api/regulations/ask?q=..., streaming retrieved chunks
// and a grounded answer.
func (h *regulationHandler) ask(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query parameter q is required")
		return
	}
	ctx := r.Context()

	stream, err := sse.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", err.Error())
		return
	}

	err = h.svc.Answer(ctx, query, func(ev regulation.AnswerEvent) error {
		return stream.WriteJSON(ctx, ev)
	})
	if err != nil {
		// Retrieval failed before any event was sent; the stream may
		// still be usable for a final error frame.
		h.logger.Error("regulation answer failed", "error", err, "query_len", len(query))
		_ = stream.WriteJSON(ctx, regulation.AnswerEvent{
			Type:    regulation.EventError,
			Message: "answer generation failed",
		})
	}
}
