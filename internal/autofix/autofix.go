// Package autofix repairs broken rich menu layout JSON with an LLM.
// Providers are tried in order (Gemini first, then Groq) and every
// candidate repair is validated before it is returned, so callers never
// receive output that is worse than the input.
package autofix

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/punnathat/richmenu-studio-go/internal/logger"
	"github.com/punnathat/richmenu-studio-go/internal/richmenu"
)

// ErrNoValidFix is returned when every provider failed or produced invalid JSON.
var ErrNoValidFix = errors.New("autofix: no provider produced valid JSON")

// Fixer repairs a broken layout and returns the fixed JSON text.
type Fixer interface {
	Fix(ctx context.Context, layout string) (string, error)
	Provider() string
}

// fixPrompt builds the repair instruction for any provider.
func fixPrompt(layout string) string {
	return fmt.Sprintf(`You are a LINE Messaging API expert. The user provided a broken JSON for a Rich Menu.
Fix the JSON structure while maintaining the values. Return ONLY the raw fixed JSON string, no markdown.

Broken JSON:
%s`, layout)
}

// sanitize strips markdown fences from LLM output and verifies the result
// parses as JSON. Returns an error when the output is still broken.
func sanitize(raw string) (string, error) {
	out := strings.TrimSpace(raw)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```json")
		out = strings.TrimPrefix(out, "```")
		out = strings.TrimSuffix(out, "```")
		out = strings.TrimSpace(out)
	}

	if out == "" {
		return "", errors.New("autofix: empty response")
	}
	if result := richmenu.Validate(out); !result.Valid {
		return "", fmt.Errorf("autofix: response is not valid JSON: %s", result.Error)
	}
	return out, nil
}

// Chain tries each configured fixer in order until one returns valid JSON.
type Chain struct {
	fixers []Fixer
	log    *logger.Logger
}

// NewChain creates a provider chain. Returns nil when no fixers are given,
// which callers treat as the feature being disabled.
func NewChain(log *logger.Logger, fixers ...Fixer) *Chain {
	active := make([]Fixer, 0, len(fixers))
	for _, f := range fixers {
		if f != nil {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return &Chain{
		fixers: active,
		log:    log.WithModule("autofix"),
	}
}

// Fix repairs the layout. Returns the fixed JSON and the provider that
// produced it.
func (c *Chain) Fix(ctx context.Context, layout string) (string, string, error) {
	for _, fixer := range c.fixers {
		raw, err := fixer.Fix(ctx, layout)
		if err != nil {
			c.log.WithError(err).WithField("provider", fixer.Provider()).Warn("Layout fix attempt failed")
			continue
		}

		fixed, err := sanitize(raw)
		if err != nil {
			c.log.WithError(err).WithField("provider", fixer.Provider()).Warn("Layout fix rejected")
			continue
		}

		return fixed, fixer.Provider(), nil
	}
	return "", "", ErrNoValidFix
}

// Providers lists the configured provider names in fallback order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.fixers))
	for _, f := range c.fixers {
		names = append(names, f.Provider())
	}
	return names
}
