package sentry

import (
	"testing"
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetHub detaches any client a previous test installed. The SDK keeps its
// client on a process-global hub, so every test starts from a clean one.
func resetHub(t *testing.T) {
	t.Helper()
	sentrygo.CurrentHub().BindClient(nil)
	t.Cleanup(func() { sentrygo.CurrentHub().BindClient(nil) })
}

func TestInitializeDisabledWithoutToken(t *testing.T) {
	resetHub(t)

	require.NoError(t, Initialize(Config{Token: ""}))
	assert.False(t, IsEnabled())
}

func TestInitializeRequiresHost(t *testing.T) {
	resetHub(t)

	err := Initialize(Config{Token: "studio-errors-token"})
	require.Error(t, err)
	assert.False(t, IsEnabled())
}

func TestInitializeValidConfig(t *testing.T) {
	resetHub(t)

	err := Initialize(Config{
		Token:       "studio-errors-token",
		Host:        "errors.betterstack.com",
		Environment: "test",
		SampleRate:  1.0,
	})
	require.NoError(t, err)
	assert.True(t, IsEnabled())

	Flush(time.Second)
}

func TestInitializeDefaultSampleRate(t *testing.T) {
	resetHub(t)

	// Zero sample rate falls back to full sampling.
	err := Initialize(Config{
		Token:      "studio-errors-token",
		Host:       "errors.betterstack.com",
		SampleRate: 0,
	})
	require.NoError(t, err)

	Flush(time.Second)
}

func TestFlushWithoutEvents(t *testing.T) {
	resetHub(t)

	assert.True(t, Flush(100*time.Millisecond))
}
