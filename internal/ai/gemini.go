package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider streams text generation from the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider over an existing genai client.
func NewGeminiProvider(client *genai.Client, model string) *GeminiProvider {
	return &GeminiProvider{client: client, model: model}
}

// Name identifies the provider in logs and errors.
func (*GeminiProvider) Name() string { return "gemini" }

// Stream generates text for the prompt, invoking fn once per delta.
func (p *GeminiProvider) Stream(ctx context.Context, prompt string, fn StreamFunc) error {
	for chunk, err := range p.client.Models.GenerateContentStream(ctx, p.model, genai.Text(prompt), nil) {
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}
		text := chunk.Text()
		if text == "" {
			continue
		}
		if err := fn(text); err != nil {
			return err
		}
	}
	return nil
}
