package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrNotFound indicates the requested course does not exist.
var ErrNotFound = errors.New("course not found")

// courseCols is the standard SELECT column list for scanCourses.
const courseCols = `id, code, name, COALESCE(description, ''), COALESCE(keywords, ''), created_at, updated_at`

// Store manages courses backed by PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a course store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// VectorSearch returns the courses nearest to the query embedding, ordered
// by cosine distance. Rows without an embedding are excluded.
func (s *Store) VectorSearch(ctx context.Context, queryVec []float32, limit int) ([]SearchResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+courseCols+`, 1 - (embedding <=> $1) AS similarity
		 FROM courses
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(queryVec), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching courses: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &r.Description, &r.Keywords,
			&r.CreatedAt, &r.UpdatedAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetByID returns the course with the given ID.
func (s *Store) GetByID(ctx context.Context, id int64) (*Course, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+courseCols+` FROM courses WHERE id = $1`, id)
	return scanCourse(row, fmt.Sprintf("id %d", id))
}

// GetByCode returns the course with the given course code (e.g. "CS101").
func (s *Store) GetByCode(ctx context.Context, code string) (*Course, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+courseCols+` FROM courses WHERE code = $1`, code)
	return scanCourse(row, fmt.Sprintf("code %q", code))
}

// List returns courses ordered by code with pagination.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Course, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+courseCols+` FROM courses ORDER BY code LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// KeywordSearch returns courses whose keywords contain the given term.
// Plain substring match; the semantic path is VectorSearch.
func (s *Store) KeywordSearch(ctx context.Context, keyword string, limit int) ([]Course, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+courseCols+` FROM courses
		 WHERE keywords ILIKE '%' || $1 || '%'
		 ORDER BY code
		 LIMIT $2`,
		keyword, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("keyword searching courses: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// Upsert inserts or updates a course by code, storing its embedding.
// Returns the course ID.
func (s *Store) Upsert(ctx context.Context, c Course, embedding []float32) (int64, error) {
	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO courses (code, name, description, keywords, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (code) DO UPDATE
		 SET name = EXCLUDED.name,
		     description = EXCLUDED.description,
		     keywords = EXCLUDED.keywords,
		     embedding = EXCLUDED.embedding,
		     updated_at = now()
		 RETURNING id`,
		c.Code, c.Name, c.Description, c.Keywords, vec,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting course %q: %w", c.Code, err)
	}

	s.logger.Debug("upserted course", "code", c.Code, "id", id, "embedded", vec != nil)
	return id, nil
}

// ListContent returns the weekly topics for a course, ordered by week.
func (s *Store) ListContent(ctx context.Context, courseID int64) ([]WeekTopic, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, course_id, week_number, topic
		 FROM course_content
		 WHERE course_id = $1
		 ORDER BY week_number`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing course content: %w", err)
	}
	defer rows.Close()

	var topics []WeekTopic
	for rows.Next() {
		var t WeekTopic
		if err := rows.Scan(&t.ID, &t.CourseID, &t.WeekNumber, &t.Topic); err != nil {
			return nil, fmt.Errorf("scanning course content: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func scanCourse(row pgx.Row, desc string) (*Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.Keywords, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("course %s: %w", desc, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting course %s: %w", desc, err)
	}
	return &c, nil
}

func scanCourses(rows pgx.Rows) ([]Course, error) {
	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.Keywords, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
