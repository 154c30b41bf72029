// Package ai provides the model-facing building blocks for orbis: vector
// embedding generation and streamed text generation with provider fallback.
//
// Two small consumer interfaces keep the rest of the application decoupled
// from any vendor SDK:
//
//   - Embedder turns text into fixed-width vectors for pgvector storage.
//   - Provider streams generated text deltas for a prompt.
//
// The production wiring is Gemini (google.golang.org/genai) for embeddings
// and primary generation, with an OpenAI chat-completions client as the
// generation fallback. Service implements the fallback policy: try the
// primary, fall through to the fallback on runtime failure, and surface the
// collected causes when everything is unavailable.
package ai
