package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbis-edu/orbis/internal/catalog"
)

func courseResults() []catalog.SearchResult {
	return []catalog.SearchResult{
		{Course: catalog.Course{ID: 1, Code: "CS101", Name: "Intro to Programming", Keywords: "programming, basics"}, Similarity: 0.9},
	}
}

// decodeSSE parses data-only SSE frames into their JSON payloads.
func decodeSSE(t *testing.T, body string) []map[string]any {
	t.Helper()
	var events []map[string]any
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestSearchEndpoint(t *testing.T) {
	svc := &fakeCourseService{
		results: courseResults(),
		timings: catalog.Timings{EmbedMS: 12.5, SearchMS: 3.1, TotalMS: 15.6},
	}
	srv := newTestServer(t, ServerConfig{Catalog: svc})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?q=programming&limit=3", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "programming", resp.Query)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "CS101", resp.Results[0].Code)
	assert.Equal(t, 12.5, resp.Timings.EmbedMS)
	assert.Equal(t, 3, svc.limit)
}

func TestSearchEndpoint_MissingQuery(t *testing.T) {
	srv := newTestServer(t, ServerConfig{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "missing_query", resp.Error)
}

func TestSearchEndpoint_ServiceError(t *testing.T) {
	svc := &fakeCourseService{err: errors.New("pool closed")}
	srv := newTestServer(t, ServerConfig{Catalog: svc})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pool closed", "internal detail must not leak")
}

func TestAskEndpoint(t *testing.T) {
	svc := &fakeCourseService{
		results: courseResults(),
		deltas:  []string{"Take ", "CS101."},
	}
	srv := newTestServer(t, ServerConfig{Catalog: svc})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ask?q=programming", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := decodeSSE(t, w.Body.String())
	require.Len(t, events, 4)

	assert.Equal(t, "courses", events[0]["type"])
	assert.Equal(t, "programming", events[0]["query"])
	assert.Equal(t, float64(1), events[0]["count"])

	assert.Equal(t, "chunk", events[1]["type"])
	assert.Equal(t, "Take ", events[1]["text"])
	assert.Equal(t, "CS101.", events[2]["text"])

	assert.Equal(t, "done", events[3]["type"])
}

func TestAskEndpoint_MissingQuery(t *testing.T) {
	srv := newTestServer(t, ServerConfig{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ask", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoursesEndpoint_List(t *testing.T) {
	svc := &fakeCourseService{results: courseResults()}
	srv := newTestServer(t, ServerConfig{Catalog: svc})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses?limit=10", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Courses []catalog.Course `json:"courses"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "CS101", resp.Courses[0].Code)
	assert.Equal(t, 10, svc.limit)
}

func TestCoursesEndpoint_KeywordFilter(t *testing.T) {
	svc := &fakeCourseService{results: courseResults()}
	srv := newTestServer(t, ServerConfig{Catalog: svc})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses?keyword=programming", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses?keyword=welding", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestCoursesEndpoint_Detail(t *testing.T) {
	svc := &fakeCourseService{results: courseResults()}
	srv := newTestServer(t, ServerConfig{Catalog: svc})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses/CS101", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var detail catalog.CourseDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "CS101", detail.Code)
	assert.NotNil(t, detail.Content)
}

func TestCoursesEndpoint_DetailNotFound(t *testing.T) {
	srv := newTestServer(t, ServerConfig{Catalog: &fakeCourseService{}})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses/NOPE", nil))

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=7&bad=x", nil)
	assert.Equal(t, 7, queryInt(r, "limit", 5))
	assert.Equal(t, 5, queryInt(r, "missing", 5))
	assert.Equal(t, 5, queryInt(r, "bad", 5))
}
