package autofix

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Groq exposes an OpenAI-compatible API, so the fixer reuses the OpenAI
// client with a custom base URL.
const (
	groqBaseURL = "https://api.groq.com/openai/v1/"

	// DefaultGroqModel is used when no model override is configured.
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// groqFixer repairs layouts through the Groq API.
type groqFixer struct {
	client openai.Client
	model  string
}

// newGroqFixer creates a Groq-backed fixer.
// Returns nil if apiKey is empty (provider disabled).
func newGroqFixer(_ context.Context, apiKey, model string) (*groqFixer, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: feature disabled when no API key
	}

	if model == "" {
		model = DefaultGroqModel
	}

	client := openai.NewClient(
		option.WithBaseURL(groqBaseURL),
		option.WithAPIKey(apiKey),
	)

	return &groqFixer{
		client: client,
		model:  model,
	}, nil
}

// Fix asks Groq to repair the layout.
func (f *groqFixer) Fix(ctx context.Context, layout string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: f.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(fixPrompt(layout)),
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(2048),
	}

	resp, err := f.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from %s", f.model)
	}
	return resp.Choices[0].Message.Content, nil
}

// Provider returns the provider name for this fixer.
func (f *groqFixer) Provider() string {
	return "groq"
}
