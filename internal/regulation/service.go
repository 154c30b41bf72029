package regulation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/orbis-edu/orbis/internal/ai"
)

const (
	// DefaultSearchLimit is the chunk count retrieved for grounded answers.
	DefaultSearchLimit = 5
	MaxSearchLimit     = 50

	embedTimeout = 10 * time.Second
)

// Answer event types emitted by Answer, in stream order.
const (
	EventMetadata = "metadata"
	EventChunk    = "chunk"
	EventDone     = "done"
	EventError    = "error"
)

// AnswerEvent is one element of a grounded answer stream. Type selects
// which of the remaining fields are populated.
type AnswerEvent struct {
	Type            string              `json:"type"`
	Query           string              `json:"query,omitempty"`
	RetrievedChunks []ChunkSearchResult `json:"retrieved_chunks,omitempty"`
	Text            string              `json:"text,omitempty"`
	Message         string              `json:"message,omitempty"`
}

// ChunkStore is the store surface the service needs.
type ChunkStore interface {
	GetDocument(ctx context.Context, id int64) (*Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	ReplaceChunks(ctx context.Context, documentID int64, chunks []Chunk, embeddings [][]float32) error
	VectorSearch(ctx context.Context, queryVec []float32, limit int) ([]ChunkSearchResult, error)
}

// Generator streams generated text for a prompt.
type Generator interface {
	Stream(ctx context.Context, prompt string, fn ai.StreamFunc) error
}

// Service turns regulation documents into searchable chunks and answers
// questions grounded in them.
type Service struct {
	store    ChunkStore
	embedder ai.Embedder
	llm      Generator
	logger   *slog.Logger
}

// NewService creates a regulation service.
func NewService(store ChunkStore, embedder ai.Embedder, llm Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, embedder: embedder, llm: llm, logger: logger}
}

// ListDocuments returns every stored document without raw content.
func (s *Service) ListDocuments(ctx context.Context) ([]Document, error) {
	return s.store.ListDocuments(ctx)
}

// ChunkDocument splits the document into overlapping word windows, embeds
// each, and replaces the document's stored chunks with the survivors.
// A chunk whose embedding fails is logged and skipped rather than failing
// the whole document. Returns the number of chunks stored.
func (s *Service) ChunkDocument(ctx context.Context, documentID int64, size, overlap int) (int, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	texts := SplitWords(doc.RawContent, size, overlap)

	chunks := make([]Chunk, 0, len(texts))
	embeddings := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := s.embedder.Embed(ctx, text, ai.TaskDocument)
		if err != nil {
			if ctx.Err() != nil {
				return 0, fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			s.logger.Warn("skipping chunk, embedding failed",
				"document_id", documentID, "chunk_index", i, "error", err)
			continue
		}
		chunks = append(chunks, Chunk{DocumentID: documentID, Index: i, Content: text})
		embeddings = append(embeddings, vec)
	}

	if err := s.store.ReplaceChunks(ctx, documentID, chunks, embeddings); err != nil {
		return 0, err
	}

	s.logger.Info("chunked document",
		"document_id", documentID, "chunks", len(chunks), "skipped", len(texts)-len(chunks))
	return len(chunks), nil
}

// SearchChunks embeds the query and returns the nearest chunks with their
// parent document metadata.
func (s *Service) SearchChunks(ctx context.Context, query string, limit int) ([]ChunkSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []ChunkSearchResult{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	vec, err := s.embedder.Embed(embedCtx, query, ai.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.store.VectorSearch(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	if results == nil {
		results = []ChunkSearchResult{}
	}
	return results, nil
}

// Answer retrieves the chunks most relevant to the query and streams a
// grounded answer as a sequence of events: metadata with the retrieved
// chunks, text deltas, then done. Generation failures surface as an error
// event rather than an error return so the metadata already sent stays
// meaningful to the client.
func (s *Service) Answer(ctx context.Context, query string, emit func(AnswerEvent) error) error {
	results, err := s.SearchChunks(ctx, query, DefaultSearchLimit)
	if err != nil {
		return err
	}

	if err := emit(AnswerEvent{Type: EventMetadata, Query: query, RetrievedChunks: results}); err != nil {
		return err
	}

	if len(results) == 0 {
		if err := emit(AnswerEvent{Type: EventChunk, Text: "I couldn't find any specific regulations matching your query."}); err != nil {
			return err
		}
		return emit(AnswerEvent{Type: EventDone})
	}

	streamErr := s.llm.Stream(ctx, answerPrompt(query, results), func(delta string) error {
		return emit(AnswerEvent{Type: EventChunk, Text: delta})
	})
	if streamErr != nil {
		if ctx.Err() != nil {
			return streamErr
		}
		s.logger.Error("answer generation failed", "error", streamErr)
		return emit(AnswerEvent{
			Type:    EventError,
			Message: fmt.Sprintf("Sorry, I encountered an error generating the answer: %v", streamErr),
		})
	}

	return emit(AnswerEvent{Type: EventDone})
}

// answerPrompt grounds the model strictly in the retrieved regulations.
func answerPrompt(query string, results []ChunkSearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Source: %s\nContent: %s", r.DocumentTitle, r.Content)
	}

	return fmt.Sprintf(
		"You are a university regulation expert. A student asked: '%s'\n\n"+
			"Based strictly on the following official regulations, answer the question:\n\n%s\n\n"+
			"If the answer is not in the text, say so. Cite the source document title when possible.",
		query, sb.String(),
	)
}
