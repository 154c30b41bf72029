package regulation

import "strings"

// Chunking bounds. Embedding requests degrade past roughly 150 words per
// chunk, so larger requests are silently capped rather than rejected.
const (
	DefaultChunkSize    = 200
	DefaultChunkOverlap = 20
	MaxChunkSize        = 150
)

// SplitWords splits text into overlapping windows of at most size words,
// stepping size-overlap words between windows. The final partial window is
// kept. Overlap values that would prevent progress fall back to the default.
func SplitWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	if size <= 0 {
		size = DefaultChunkSize
	}
	if size > MaxChunkSize {
		size = MaxChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = 0
		}
	}

	step := size - overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
