package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/orbis-edu/orbis/internal/ai"
)

// MockEmbedder is a deterministic ai.Embedder for tests. Unknown texts get a
// stable pseudo-random unit vector derived from their hash; SetVector pins
// exact vectors so tests can control cosine similarity.
//
// MockEmbedder is safe for concurrent use.
type MockEmbedder struct {
	mu     sync.Mutex
	dim    int
	pinned map[string][]float32
}

// NewMockEmbedder creates a mock embedder producing dim-wide vectors.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{dim: dim, pinned: make(map[string][]float32)}
}

// SetVector pins the vector returned for the given text.
func (m *MockEmbedder) SetVector(text string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned[text] = vec
}

// Embed returns the pinned or derived vector for the text.
func (m *MockEmbedder) Embed(_ context.Context, text string, _ ai.TaskType) ([]float32, error) {
	return m.vectorFor(text), nil
}

// EmbedBatch embeds each text independently.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string, task ai.TaskType) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text, task)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the vector width.
func (m *MockEmbedder) Dimensions() int { return m.dim }

func (m *MockEmbedder) vectorFor(text string) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.pinned[text]; ok {
		return vec
	}

	// Stable pseudo-random unit vector from the text hash.
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dim)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed)) / math.MaxInt64
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// UnitVector creates a dim-wide unit vector with a single non-zero
// component, handy for controlling cosine similarity in tests.
func UnitVector(dim, idx int) []float32 {
	vec := make([]float32, dim)
	vec[idx%dim] = 1.0
	return vec
}
