package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/orbis-edu/orbis/internal/ai"
)

// Search limits. Clamped rather than rejected so sloppy clients still get
// sensible results.
const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 50

	// EmbedTimeout bounds query embedding so a slow model API cannot hold
	// the request open indefinitely.
	EmbedTimeout = 10 * time.Second
)

// ErrInvalidCourse indicates a course failed validation.
var ErrInvalidCourse = errors.New("invalid course")

// CourseStore is the store surface the service needs.
type CourseStore interface {
	VectorSearch(ctx context.Context, queryVec []float32, limit int) ([]SearchResult, error)
	GetByCode(ctx context.Context, code string) (*Course, error)
	List(ctx context.Context, limit, offset int) ([]Course, error)
	KeywordSearch(ctx context.Context, keyword string, limit int) ([]Course, error)
	ListContent(ctx context.Context, courseID int64) ([]WeekTopic, error)
	Upsert(ctx context.Context, c Course, embedding []float32) (int64, error)
}

// Generator streams generated text for a prompt.
type Generator interface {
	Stream(ctx context.Context, prompt string, fn ai.StreamFunc) error
}

// Service orchestrates semantic course search: query embedding, vector
// retrieval, and streamed advisor recommendations.
type Service struct {
	store    CourseStore
	embedder ai.Embedder
	llm      Generator
	logger   *slog.Logger
}

// NewService creates a catalog service.
func NewService(store CourseStore, embedder ai.Embedder, llm Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, embedder: embedder, llm: llm, logger: logger}
}

// clampLimit bounds a requested result count.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

// Search embeds the query and returns the nearest courses with per-stage
// timings. An empty query returns no results without calling the model.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchResult, Timings, error) {
	var timings Timings
	if strings.TrimSpace(query) == "" {
		return []SearchResult{}, timings, nil
	}
	limit = clampLimit(limit)

	total := time.Now()

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	embedStart := time.Now()
	vec, err := s.embedder.Embed(embedCtx, query, ai.TaskQuery)
	if err != nil {
		return nil, timings, fmt.Errorf("embedding query: %w", err)
	}
	timings.EmbedMS = msSince(embedStart)

	searchStart := time.Now()
	results, err := s.store.VectorSearch(ctx, vec, limit)
	if err != nil {
		return nil, timings, fmt.Errorf("searching courses: %w", err)
	}
	timings.SearchMS = msSince(searchStart)
	timings.TotalMS = msSince(total)

	s.logger.Debug("course search",
		"query_len", len(query), "results", len(results),
		"embed_ms", timings.EmbedMS, "search_ms", timings.SearchMS)

	if results == nil {
		results = []SearchResult{}
	}
	return results, timings, nil
}

// GetCourse returns a course by code together with its weekly topics.
func (s *Service) GetCourse(ctx context.Context, code string) (*CourseDetail, error) {
	course, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	content, err := s.store.ListContent(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		content = []WeekTopic{}
	}
	return &CourseDetail{Course: *course, Content: content}, nil
}

// ListCourses returns courses ordered by code with pagination.
func (s *Service) ListCourses(ctx context.Context, limit, offset int) ([]Course, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	courses, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []Course{}
	}
	return courses, nil
}

// KeywordSearch returns courses whose keywords contain the term. This is
// the exact-match complement to the semantic Search path.
func (s *Service) KeywordSearch(ctx context.Context, keyword string, limit int) ([]Course, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []Course{}, nil
	}

	courses, err := s.store.KeywordSearch(ctx, keyword, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []Course{}
	}
	return courses, nil
}

// UpsertCourse validates the course, embeds its searchable text, and stores
// it. Returns the course ID.
func (s *Service) UpsertCourse(ctx context.Context, c Course) (int64, error) {
	c.Code = strings.TrimSpace(c.Code)
	c.Name = strings.TrimSpace(c.Name)
	if c.Code == "" || c.Name == "" {
		return 0, fmt.Errorf("%w: code and name are required", ErrInvalidCourse)
	}

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	vec, err := s.embedder.Embed(embedCtx, embeddingText(c), ai.TaskDocument)
	if err != nil {
		return 0, fmt.Errorf("embedding course %q: %w", c.Code, err)
	}

	return s.store.Upsert(ctx, c, vec)
}

// embeddingText is the text a course is indexed under for semantic search.
func embeddingText(c Course) string {
	return fmt.Sprintf("%s %s. %s Keywords: %s", c.Code, c.Name, c.Description, c.Keywords)
}

// StreamRecommendation streams an advisor-style recommendation for the
// query grounded in the given courses, invoking fn once per text delta.
func (s *Service) StreamRecommendation(ctx context.Context, query string, courses []SearchResult, fn ai.StreamFunc) error {
	if len(courses) == 0 {
		return fn("I couldn't find any courses matching your query.")
	}
	return s.llm.Stream(ctx, recommendationPrompt(query, courses), fn)
}

// recommendationPrompt formats the retrieved courses into the advisor
// prompt. Course codes are included so the model can cite them.
func recommendationPrompt(query string, courses []SearchResult) string {
	var sb strings.Builder
	for i, c := range courses {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Course %d: %s - %s\n", i+1, c.Code, c.Name)
		fmt.Fprintf(&sb, "Description: %s\n", c.Description)
		fmt.Fprintf(&sb, "Keywords: %s\n", c.Keywords)
		fmt.Fprintf(&sb, "Relevance: %.2f%%", c.Similarity*100)
	}

	return fmt.Sprintf(
		"You are a university course advisor. A student asked: '%s'\n\n"+
			"Based on this query, here are the most relevant courses:\n\n%s\n\n"+
			"Provide a helpful, concise recommendation (2-3 paragraphs). "+
			"Explain which course(s) best match their needs and why. "+
			"Be specific and reference course codes when appropriate.",
		query, sb.String(),
	)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
