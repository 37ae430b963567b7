package archive

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompress(t *testing.T) {
	t.Parallel()

	original := []byte(strings.Repeat(`{"size":{"width":2500,"height":1686}}`, 200))

	compressed, err := Compress(original)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(original))

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestCompressEmpty(t *testing.T) {
	t.Parallel()

	compressed, err := Compress(nil)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, decompressed)
}

func TestDecompressGarbage(t *testing.T) {
	t.Parallel()

	_, err := Decompress([]byte("definitely not zstd"))
	assert.Error(t, err)
}

func TestObjectKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "deployments/dep-1/record.json", recordKey("dep-1"))
	assert.Equal(t, "deployments/dep-1/layout.json.zst", layoutKey("dep-1"))
	assert.Equal(t, "deployments/dep-1/image", imageKey("dep-1"))
}

func TestNewRequiresFullConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{
		Endpoint:    "https://acc.r2.cloudflarestorage.com",
		AccessKeyID: "key",
	})
	assert.Error(t, err)
}
