package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/orbis-edu/orbis/internal/ai"
	"github.com/orbis-edu/orbis/internal/catalog"
	"github.com/orbis-edu/orbis/internal/sse"
)

// CourseService is the catalog surface the handler needs.
type CourseService interface {
	Search(ctx context.Context, query string, limit int) ([]catalog.SearchResult, catalog.Timings, error)
	StreamRecommendation(ctx context.Context, query string, courses []catalog.SearchResult, fn ai.StreamFunc) error
	GetCourse(ctx context.Context, code string) (*catalog.CourseDetail, error)
	ListCourses(ctx context.Context, limit, offset int) ([]catalog.Course, error)
	KeywordSearch(ctx context.Context, keyword string, limit int) ([]catalog.Course, error)
}

// catalogHandler serves semantic course search and streamed
// recommendations.
type catalogHandler struct {
	svc    CourseService
	logger *slog.Logger
}

// RegisterRoutes registers catalog routes on the given mux.
func (h *catalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", h.search)
	mux.HandleFunc("GET /api/ask", h.ask)
	mux.HandleFunc("GET /api/courses", h.listCourses)
	mux.HandleFunc("GET /api/courses/{code}", h.getCourse)
}

// listCourses handles GET /api/courses?limit=N&offset=M, optionally
// filtered by ?keyword=.
func (h *catalogHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", catalog.DefaultSearchLimit)
	offset := queryInt(r, "offset", 0)

	var courses []catalog.Course
	var err error
	if keyword := strings.TrimSpace(r.URL.Query().Get("keyword")); keyword != "" {
		courses, err = h.svc.KeywordSearch(r.Context(), keyword, limit)
	} else {
		courses, err = h.svc.ListCourses(r.Context(), limit, offset)
	}
	if err != nil {
		h.logger.Error("course list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "listing courses failed")
		return
	}
	if courses == nil {
		courses = []catalog.Course{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"courses": courses,
		"count":   len(courses),
	})
}

// getCourse handles GET /api/courses/{code}, returning the course with its
// weekly topics.
func (h *catalogHandler) getCourse(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	detail, err := h.svc.GetCourse(r.Context(), code)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "course not found")
		return
	}
	if err != nil {
		h.logger.Error("course lookup failed", "error", err, "code", code)
		writeError(w, http.StatusInternalServerError, "lookup_failed", "course lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// searchResponse is the /api/search body.
type searchResponse struct {
	Query   string                 `json:"query"`
	Results []catalog.SearchResult `json:"results"`
	Count   int                    `json:"count"`
	Timings catalog.Timings        `json:"timings_ms"`
}

// search handles GET /api/search?q=...&limit=N.
func (h *catalogHandler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query parameter q is required")
		return
	}
	limit := queryInt(r, "limit", catalog.DefaultSearchLimit)

	results, timings, err := h.svc.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("course search failed", "error", err, "query_len", len(query))
		writeError(w, http.StatusInternalServerError, "search_failed", "course search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
		Timings: timings,
	})
}

// askEvent is one SSE frame of the /api/ask stream.
type askEvent struct {
	Type    string                 `json:"type"`
	Query   string                 `json:"query,omitempty"`
	Courses []catalog.SearchResult `json:"courses,omitempty"`
	Count   int                    `json:"count,omitempty"`
	Text    string                 `json:"text,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// ask handles GET /api/ask?q=...&limit=N, streaming the retrieved courses
// followed by an LLM recommendation.
func (h *catalogHandler) ask(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query parameter q is required")
		return
	}
	limit := queryInt(r, "limit", catalog.DefaultSearchLimit)
	ctx := r.Context()

	courses, _, err := h.svc.Search(ctx, query, limit)
	if err != nil {
		h.logger.Error("course search failed", "error", err, "query_len", len(query))
		writeError(w, http.StatusInternalServerError, "search_failed", "course search failed")
		return
	}

	stream, err := sse.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", err.Error())
		return
	}

	if err := stream.WriteJSON(ctx, askEvent{
		Type: "courses", Query: query, Courses: courses, Count: len(courses),
	}); err != nil {
		return
	}

	err = h.svc.StreamRecommendation(ctx, query, courses, func(delta string) error {
		return stream.WriteJSON(ctx, askEvent{Type: "chunk", Text: delta})
	})
	if err != nil {
		h.logger.Error("recommendation stream failed", "error", err)
		_ = stream.WriteJSON(ctx, askEvent{Type: "error", Message: "answer generation failed"})
		return
	}

	_ = stream.WriteJSON(ctx, askEvent{Type: "done"})
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
