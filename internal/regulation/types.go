package regulation

import "time"

// Document is a regulation document as stored, with its full raw content.
type Document struct {
	ID         int64     `json:"id"`
	SourceURL  string    `json:"source_url"`
	Title      string    `json:"title"`
	RawContent string    `json:"raw_content,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Keywords   string    `json:"keywords,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Chunk is one embedded slice of a document.
type Chunk struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	Index      int    `json:"chunk_index"`
	Content    string `json:"content"`
}

// ChunkSearchResult is a retrieved chunk joined with its parent document,
// the shape returned to clients and fed into answer prompts.
type ChunkSearchResult struct {
	Content       string  `json:"content"`
	DocumentTitle string  `json:"document_title"`
	SourceURL     string  `json:"source_url"`
	Similarity    float64 `json:"similarity"`
}
