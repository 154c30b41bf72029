package regulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

const documentCols = `id, source_url, title, raw_content, COALESCE(summary, ''), COALESCE(keywords, ''), created_at`

// Store manages regulation documents and their chunks backed by
// PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a document store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// GetDocument returns the document with the given ID, including raw content.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	var d Document
	err := s.pool.QueryRow(ctx,
		`SELECT `+documentCols+` FROM university_documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.SourceURL, &d.Title, &d.RawContent, &d.Summary, &d.Keywords, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document %d: %w", id, err)
	}
	return &d, nil
}

// ListDocuments returns all documents ordered by ID, without raw content.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source_url, title, COALESCE(summary, ''), COALESCE(keywords, ''), created_at
		 FROM university_documents
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.SourceURL, &d.Title, &d.Summary, &d.Keywords, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ExistsBySourceURL reports whether a document with the source URL exists.
func (s *Store) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM university_documents WHERE source_url = $1)`,
		sourceURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking document %q: %w", sourceURL, err)
	}
	return exists, nil
}

// InsertDocument stores a new document with its keyword embedding and
// returns the document ID.
func (s *Store) InsertDocument(ctx context.Context, d Document, keywordEmbedding []float32) (int64, error) {
	var vec *pgvector.Vector
	if len(keywordEmbedding) > 0 {
		v := pgvector.NewVector(keywordEmbedding)
		vec = &v
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO university_documents (source_url, title, raw_content, summary, keywords, keyword_embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		d.SourceURL, d.Title, d.RawContent, d.Summary, d.Keywords, vec,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting document %q: %w", d.SourceURL, err)
	}

	s.logger.Debug("inserted document", "id", id, "source_url", d.SourceURL)
	return id, nil
}

// ReplaceChunks deletes a document's existing chunks and inserts the given
// ones in a single transaction, so a re-chunk never leaves a partial mix of
// old and new chunks behind.
func (s *Store) ReplaceChunks(ctx context.Context, documentID int64, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning chunk transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting chunks for document %d: %w", documentID, err)
	}

	for i, c := range chunks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (document_id, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4)`,
			documentID, c.Index, c.Content, pgvector.NewVector(embeddings[i]),
		); err != nil {
			return fmt.Errorf("inserting chunk %d for document %d: %w", c.Index, documentID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunks for document %d: %w", documentID, err)
	}

	s.logger.Debug("replaced chunks", "document_id", documentID, "count", len(chunks))
	return nil
}

// VectorSearch returns the chunks nearest to the query embedding joined
// with their parent document's title and source URL.
func (s *Store) VectorSearch(ctx context.Context, queryVec []float32, limit int) ([]ChunkSearchResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.content, d.title, d.source_url, 1 - (c.embedding <=> $1) AS similarity
		 FROM document_chunks c
		 JOIN university_documents d ON d.id = c.document_id
		 ORDER BY c.embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(queryVec), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var results []ChunkSearchResult
	for rows.Next() {
		var r ChunkSearchResult
		if err := rows.Scan(&r.Content, &r.DocumentTitle, &r.SourceURL, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// CountChunks returns the number of stored chunks for a document.
func (s *Store) CountChunks(ctx context.Context, documentID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM document_chunks WHERE document_id = $1`, documentID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks for document %d: %w", documentID, err)
	}
	return n, nil
}
