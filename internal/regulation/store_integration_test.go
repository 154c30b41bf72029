//go:build integration

package regulation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbis-edu/orbis/internal/config"
	"github.com/orbis-edu/orbis/internal/log"
	"github.com/orbis-edu/orbis/internal/testutil"
)

func seedDocument(t *testing.T, store *Store, sourceURL, title, content string) int64 {
	t.Helper()
	id, err := store.InsertDocument(context.Background(), Document{
		SourceURL:  sourceURL,
		Title:      title,
		RawContent: content,
	}, testutil.UnitVector(config.EmbeddingDimensions, 0))
	require.NoError(t, err)
	return id
}

func TestStore_DocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store, err := NewStore(tdb.Pool, log.NewNop())
	require.NoError(t, err)

	testutil.CleanTables(t, tdb.Pool)

	id := seedDocument(t, store, "https://example.edu/thesis", "Thesis Regulations", "full text")

	doc, err := store.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Thesis Regulations", doc.Title)
	assert.Equal(t, "full text", doc.RawContent)

	exists, err := store.ExistsBySourceURL(ctx, "https://example.edu/thesis")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsBySourceURL(ctx, "https://example.edu/other")
	require.NoError(t, err)
	assert.False(t, exists)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].RawContent, "listing omits raw content")

	_, err = store.GetDocument(ctx, id+1000)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_ReplaceChunksAndSearch(t *testing.T) {
	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store, err := NewStore(tdb.Pool, log.NewNop())
	require.NoError(t, err)

	testutil.CleanTables(t, tdb.Pool)

	id := seedDocument(t, store, "https://example.edu/exams", "Exam Regulations", "text")

	dim := config.EmbeddingDimensions
	err = store.ReplaceChunks(ctx, id, []Chunk{
		{Index: 0, Content: "exams run in June"},
		{Index: 1, Content: "retakes happen in September"},
	}, [][]float32{testutil.UnitVector(dim, 0), testutil.UnitVector(dim, 1)})
	require.NoError(t, err)

	results, err := store.VectorSearch(ctx, testutil.UnitVector(dim, 1), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "retakes happen in September", results[0].Content)
	assert.Equal(t, "Exam Regulations", results[0].DocumentTitle)
	assert.Equal(t, "https://example.edu/exams", results[0].SourceURL)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)

	// Replacing again must not leave old chunks behind.
	err = store.ReplaceChunks(ctx, id, []Chunk{
		{Index: 0, Content: "only chunk"},
	}, [][]float32{testutil.UnitVector(dim, 2)})
	require.NoError(t, err)

	n, err := store.CountChunks(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_ReplaceChunksCountMismatch(t *testing.T) {
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store, err := NewStore(tdb.Pool, log.NewNop())
	require.NoError(t, err)

	testutil.CleanTables(t, tdb.Pool)

	id := seedDocument(t, store, "https://example.edu/x", "X", "text")

	err = store.ReplaceChunks(context.Background(), id, []Chunk{{Index: 0, Content: "a"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}
