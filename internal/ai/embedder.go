package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/orbis-edu/orbis/internal/config"
)

// TaskType selects the embedding task hint passed to the model. Documents
// and queries embed differently for retrieval workloads.
type TaskType string

const (
	// TaskDocument marks text stored in the index.
	TaskDocument TaskType = "RETRIEVAL_DOCUMENT"

	// TaskQuery marks text used to search the index.
	TaskQuery TaskType = "RETRIEVAL_QUERY"
)

// Embedder generates vector embeddings for text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed embeds a single text.
	Embed(ctx context.Context, text string, task TaskType) ([]float32, error)

	// EmbedBatch embeds multiple texts in one request.
	EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error)

	// Dimensions returns the width of the produced vectors.
	Dimensions() int
}

// GeminiEmbedder generates embeddings using the Gemini API.
//
// gemini-embedding-001 outputs 3072 dimensions by default; the output is
// truncated to config.EmbeddingDimensions to match the pgvector schema.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates an embedder over an existing genai client.
func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	if model == "" {
		model = config.DefaultEmbedderModel
	}
	return &GeminiEmbedder{client: client, model: model}
}

// Embed embeds a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds multiple texts in one request.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	dim := int32(config.EmbeddingDimensions)
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             string(task),
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vecs := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding returned for text %d", i)
		}
		vecs[i] = emb.Values
	}
	return vecs, nil
}

// Dimensions returns the width of the produced vectors.
func (*GeminiEmbedder) Dimensions() int {
	return config.EmbeddingDimensions
}
