package autofix

import (
	"context"

	"github.com/punnathat/richmenu-studio-go/internal/logger"
)

// Config selects which LLM providers are available for layout repair.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string
}

// New builds the provider chain from configuration. Gemini is preferred,
// Groq serves as fallback. Returns nil when no provider is configured,
// which disables the feature.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Chain, error) {
	gemini, err := newGeminiFixer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}

	groq, err := newGroqFixer(ctx, cfg.GroqAPIKey, cfg.GroqModel)
	if err != nil {
		return nil, err
	}

	// NewChain tolerates nil fixers and returns nil when both are absent.
	var fixers []Fixer
	if gemini != nil {
		fixers = append(fixers, gemini)
	}
	if groq != nil {
		fixers = append(fixers, groq)
	}
	return NewChain(log, fixers...), nil
}
