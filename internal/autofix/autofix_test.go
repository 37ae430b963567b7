package autofix

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punnathat/richmenu-studio-go/internal/logger"
)

type stubFixer struct {
	name   string
	output string
	err    error
	calls  int
}

func (s *stubFixer) Fix(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.output, s.err
}

func (s *stubFixer) Provider() string { return s.name }

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"name": "Menu"}`,
			want: `{"name": "Menu"}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"name\": \"Menu\"}\n```",
			want: `{"name": "Menu"}`,
		},
		{
			name: "bare fence",
			raw:  "```\n{\"name\": \"Menu\"}\n```",
			want: `{"name": "Menu"}`,
		},
		{
			name:    "still broken",
			raw:     `{"name": }`,
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitize(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChainReturnsFirstValidFix(t *testing.T) {
	first := &stubFixer{name: "gemini", output: `{"fixed": true}`}
	second := &stubFixer{name: "groq", output: `{"fixed": "later"}`}

	chain := NewChain(logger.New("error"), first, second)
	require.NotNil(t, chain)

	fixed, provider, err := chain.Fix(context.Background(), `{ broken`)
	require.NoError(t, err)
	assert.Equal(t, `{"fixed": true}`, fixed)
	assert.Equal(t, "gemini", provider)
	assert.Equal(t, 0, second.calls)
}

func TestChainFallsBackOnError(t *testing.T) {
	first := &stubFixer{name: "gemini", err: errors.New("rate limited")}
	second := &stubFixer{name: "groq", output: "```json\n{\"ok\": 1}\n```"}

	chain := NewChain(logger.New("error"), first, second)
	require.NotNil(t, chain)

	fixed, provider, err := chain.Fix(context.Background(), `{ broken`)
	require.NoError(t, err)
	assert.Equal(t, `{"ok": 1}`, fixed)
	assert.Equal(t, "groq", provider)
}

func TestChainFallsBackOnInvalidOutput(t *testing.T) {
	first := &stubFixer{name: "gemini", output: `still { not json`}
	second := &stubFixer{name: "groq", output: `{"ok": 1}`}

	chain := NewChain(logger.New("error"), first, second)

	fixed, provider, err := chain.Fix(context.Background(), `{ broken`)
	require.NoError(t, err)
	assert.Equal(t, `{"ok": 1}`, fixed)
	assert.Equal(t, "groq", provider)
}

func TestChainAllProvidersFail(t *testing.T) {
	first := &stubFixer{name: "gemini", err: errors.New("down")}
	second := &stubFixer{name: "groq", output: `nope`}

	chain := NewChain(logger.New("error"), first, second)

	_, _, err := chain.Fix(context.Background(), `{ broken`)
	assert.ErrorIs(t, err, ErrNoValidFix)
}

func TestNewChainEmptyIsNil(t *testing.T) {
	assert.Nil(t, NewChain(logger.New("error")))
	assert.Nil(t, NewChain(logger.New("error"), nil))
}

func TestNewDisabledWithoutKeys(t *testing.T) {
	chain, err := New(context.Background(), Config{}, logger.New("error"))
	require.NoError(t, err)
	assert.Nil(t, chain)
}

func TestChainProviders(t *testing.T) {
	chain := NewChain(logger.New("error"),
		&stubFixer{name: "gemini"},
		&stubFixer{name: "groq"},
	)
	assert.Equal(t, []string{"gemini", "groq"}, chain.Providers())
}
