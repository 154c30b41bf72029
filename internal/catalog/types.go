package catalog

import "time"

// Course is one catalog entry. Embedding is stored in pgvector and never
// leaves the store layer.
type Course struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Keywords    string    `json:"keywords"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WeekTopic is one week of course content.
type WeekTopic struct {
	ID         int64  `json:"id"`
	CourseID   int64  `json:"course_id"`
	WeekNumber int    `json:"week_number"`
	Topic      string `json:"topic"`
}

// CourseDetail is a course together with its weekly topics.
type CourseDetail struct {
	Course
	Content []WeekTopic `json:"content"`
}

// SearchResult is a course with its similarity to the query.
// Similarity is 1 minus the cosine distance, in (0, 1] for matching rows.
type SearchResult struct {
	Course
	Similarity float64 `json:"similarity"`
}

// Timings records per-stage search latency in milliseconds, exposed on the
// search endpoint for embedding/retrieval experiments.
type Timings struct {
	EmbedMS  float64 `json:"embed_ms"`
	SearchMS float64 `json:"search_ms"`
	TotalMS  float64 `json:"total_ms"`
}
