package regulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbis-edu/orbis/internal/ai"
	"github.com/orbis-edu/orbis/internal/config"
	"github.com/orbis-edu/orbis/internal/log"
	"github.com/orbis-edu/orbis/internal/testutil"
)

type fakeChunkStore struct {
	doc        *Document
	getErr     error
	results    []ChunkSearchResult
	searchErr  error
	replaced   []Chunk
	replaceErr error
	limit      int
}

func (f *fakeChunkStore) GetDocument(_ context.Context, _ int64) (*Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.doc, nil
}

func (f *fakeChunkStore) ListDocuments(_ context.Context) ([]Document, error) {
	if f.doc == nil {
		return nil, nil
	}
	return []Document{*f.doc}, nil
}

func (f *fakeChunkStore) ReplaceChunks(_ context.Context, _ int64, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("count mismatch")
	}
	f.replaced = chunks
	return f.replaceErr
}

func (f *fakeChunkStore) VectorSearch(_ context.Context, _ []float32, limit int) ([]ChunkSearchResult, error) {
	f.limit = limit
	return f.results, f.searchErr
}

// failingEmbedder wraps a MockEmbedder and fails on configured texts.
type failingEmbedder struct {
	*testutil.MockEmbedder
	failOn map[string]bool
}

func (f *failingEmbedder) Embed(ctx context.Context, text string, task ai.TaskType) ([]float32, error) {
	if f.failOn[text] {
		return nil, errors.New("model overloaded")
	}
	return f.MockEmbedder.Embed(ctx, text, task)
}

type fakeGenerator struct {
	deltas []string
	prompt string
	err    error
}

func (f *fakeGenerator) Stream(_ context.Context, prompt string, fn ai.StreamFunc) error {
	f.prompt = prompt
	for _, d := range f.deltas {
		if err := fn(d); err != nil {
			return err
		}
	}
	return f.err
}

func sampleChunks() []ChunkSearchResult {
	return []ChunkSearchResult{
		{Content: "Students must submit theses by May 31.", DocumentTitle: "Thesis Regulations", SourceURL: "https://example.edu/thesis", Similarity: 0.88},
		{Content: "Late submissions require dean approval.", DocumentTitle: "Thesis Regulations", SourceURL: "https://example.edu/thesis", Similarity: 0.73},
	}
}

func newService(store ChunkStore, emb ai.Embedder, gen Generator) *Service {
	if emb == nil {
		emb = testutil.NewMockEmbedder(config.EmbeddingDimensions)
	}
	return NewService(store, emb, gen, log.NewNop())
}

func TestChunkDocument(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 50) // 200 words
	store := &fakeChunkStore{doc: &Document{ID: 7, RawContent: text}}
	svc := newService(store, nil, &fakeGenerator{})

	count, err := svc.ChunkDocument(context.Background(), 7, 100, 10)
	require.NoError(t, err)

	// 200 words, window 100, step 90: windows at 0, 90, 180.
	assert.Equal(t, 3, count)
	require.Len(t, store.replaced, 3)
	assert.Equal(t, 0, store.replaced[0].Index)
	assert.Equal(t, 2, store.replaced[2].Index)
}

func TestChunkDocument_NotFound(t *testing.T) {
	store := &fakeChunkStore{getErr: fmt.Errorf("document 99: %w", ErrNotFound)}
	svc := newService(store, nil, &fakeGenerator{})

	_, err := svc.ChunkDocument(context.Background(), 99, 100, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestChunkDocument_SkipsFailedEmbeddings(t *testing.T) {
	store := &fakeChunkStore{doc: &Document{ID: 1, RawContent: "one two three four five six"}}
	emb := &failingEmbedder{
		MockEmbedder: testutil.NewMockEmbedder(config.EmbeddingDimensions),
		failOn:       map[string]bool{"three four": true},
	}
	svc := newService(store, emb, &fakeGenerator{})

	count, err := svc.ChunkDocument(context.Background(), 1, 2, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, count, "failed chunk is skipped, not fatal")
	require.Len(t, store.replaced, 2)
	for _, c := range store.replaced {
		assert.NotEqual(t, "three four", c.Content)
	}
}

func TestChunkDocument_EmptyContent(t *testing.T) {
	store := &fakeChunkStore{doc: &Document{ID: 1, RawContent: "   "}}
	svc := newService(store, nil, &fakeGenerator{})

	count, err := svc.ChunkDocument(context.Background(), 1, 100, 10)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.replaced)
}

func TestSearchChunks_EmptyQuery(t *testing.T) {
	store := &fakeChunkStore{results: sampleChunks()}
	svc := newService(store, nil, &fakeGenerator{})

	results, err := svc.SearchChunks(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, store.limit, "store must not be queried")
}

func TestSearchChunks_LimitClamping(t *testing.T) {
	store := &fakeChunkStore{}
	svc := newService(store, nil, &fakeGenerator{})

	_, err := svc.SearchChunks(context.Background(), "thesis deadline", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchLimit, store.limit)

	_, err = svc.SearchChunks(context.Background(), "thesis deadline", 999)
	require.NoError(t, err)
	assert.Equal(t, MaxSearchLimit, store.limit)
}

func collectEvents(t *testing.T, svc *Service, query string) []AnswerEvent {
	t.Helper()
	var events []AnswerEvent
	err := svc.Answer(context.Background(), query, func(ev AnswerEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	return events
}

func TestAnswer(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{"Theses are due ", "May 31."}}
	svc := newService(&fakeChunkStore{results: sampleChunks()}, nil, gen)

	events := collectEvents(t, svc, "when is the thesis deadline?")

	require.Len(t, events, 4)
	assert.Equal(t, EventMetadata, events[0].Type)
	assert.Equal(t, "when is the thesis deadline?", events[0].Query)
	assert.Len(t, events[0].RetrievedChunks, 2)
	assert.Equal(t, "Theses are due ", events[1].Text)
	assert.Equal(t, "May 31.", events[2].Text)
	assert.Equal(t, EventDone, events[3].Type)

	assert.Contains(t, gen.prompt, "regulation expert")
	assert.Contains(t, gen.prompt, "Thesis Regulations")
	assert.Contains(t, gen.prompt, "Students must submit theses by May 31.")
}

func TestAnswer_NoChunks(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{"should not run"}}
	svc := newService(&fakeChunkStore{}, nil, gen)

	events := collectEvents(t, svc, "anything")

	require.Len(t, events, 3)
	assert.Equal(t, EventMetadata, events[0].Type)
	assert.Empty(t, events[0].RetrievedChunks)
	assert.Contains(t, events[1].Text, "couldn't find any specific regulations")
	assert.Equal(t, EventDone, events[2].Type)
	assert.Empty(t, gen.prompt, "LLM must not be called without retrieved chunks")
}

func TestAnswer_GenerationFailure(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{"partial "}, err: errors.New("quota exceeded")}
	svc := newService(&fakeChunkStore{results: sampleChunks()}, nil, gen)

	events := collectEvents(t, svc, "question")

	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "quota exceeded")
}

func TestAnswer_SearchFailure(t *testing.T) {
	store := &fakeChunkStore{searchErr: errors.New("connection refused")}
	svc := newService(store, nil, &fakeGenerator{})

	err := svc.Answer(context.Background(), "question", func(AnswerEvent) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "searching chunks")
}
