package autofix

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model override is configured.
const DefaultGeminiModel = "gemini-3-flash-preview"

// geminiFixer repairs layouts through the Gemini API.
type geminiFixer struct {
	client *genai.Client
	model  string
}

// newGeminiFixer creates a Gemini-backed fixer.
// Returns nil if apiKey is empty (provider disabled).
func newGeminiFixer(ctx context.Context, apiKey, model string) (*geminiFixer, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: feature disabled when no API key
	}

	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiFixer{
		client: client,
		model:  model,
	}, nil
}

// Fix asks Gemini to repair the layout. Response MIME type is pinned to
// JSON so the model does not wrap the result in prose.
func (f *geminiFixer) Fix(ctx context.Context, layout string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	}

	resp, err := f.client.Models.GenerateContent(ctx, f.model, genai.Text(fixPrompt(layout)), config)
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from %s", f.model)
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			out.WriteString(part.Text)
		}
	}
	return out.String(), nil
}

// Provider returns the provider name for this fixer.
func (f *geminiFixer) Provider() string {
	return "gemini"
}
