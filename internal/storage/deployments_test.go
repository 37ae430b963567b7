package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordAndListDeployments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := Deployment{
		ID:         "dep-1",
		SessionID:  "sess-1",
		UserID:     "U123",
		RichMenuID: "richmenu-abc",
		Mode:       "gateway",
		Status:     "success",
		MenuName:   "My New Rich Menu",
		ImageBytes: 2048,
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	second := Deployment{
		ID:        "dep-2",
		SessionID: "sess-1",
		UserID:    "U123",
		Mode:      "direct",
		Status:    "error",
		Error:     "Deployment failed",
		CreatedAt: time.Now(),
	}

	require.NoError(t, db.RecordDeployment(ctx, first))
	require.NoError(t, db.RecordDeployment(ctx, second))

	deployments, err := db.ListDeployments(ctx, "U123", 10)
	require.NoError(t, err)
	require.Len(t, deployments, 2)

	// Newest first
	assert.Equal(t, "dep-2", deployments[0].ID)
	assert.Equal(t, "error", deployments[0].Status)
	assert.Equal(t, "Deployment failed", deployments[0].Error)
	assert.Equal(t, "dep-1", deployments[1].ID)
	assert.Equal(t, "richmenu-abc", deployments[1].RichMenuID)
	assert.Equal(t, int64(2048), deployments[1].ImageBytes)
}

func TestListDeploymentsFiltersByUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordDeployment(ctx, Deployment{ID: "dep-a", SessionID: "s1", UserID: "U1", Mode: "gateway", Status: "success"}))
	require.NoError(t, db.RecordDeployment(ctx, Deployment{ID: "dep-b", SessionID: "s2", UserID: "U2", Mode: "gateway", Status: "success"}))

	mine, err := db.ListDeployments(ctx, "U1", 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "dep-a", mine[0].ID)

	all, err := db.ListDeployments(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRecordDeploymentDuplicateID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	d := Deployment{ID: "dep-dup", SessionID: "s1", UserID: "U1", Mode: "gateway", Status: "success"}
	require.NoError(t, db.RecordDeployment(ctx, d))
	assert.Error(t, db.RecordDeployment(ctx, d))
}

func TestCountDeployments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	count, err := db.CountDeployments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, db.RecordDeployment(ctx, Deployment{ID: "dep-1", SessionID: "s", UserID: "U", Mode: "gateway", Status: "success"}))

	count, err = db.CountDeployments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPruneDeployments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := Deployment{ID: "dep-old", SessionID: "s", UserID: "U", Mode: "gateway", Status: "success", CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := Deployment{ID: "dep-new", SessionID: "s", UserID: "U", Mode: "gateway", Status: "success", CreatedAt: time.Now()}
	require.NoError(t, db.RecordDeployment(ctx, old))
	require.NoError(t, db.RecordDeployment(ctx, fresh))

	removed, err := db.PruneDeployments(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, err := db.ListDeployments(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "dep-new", remaining[0].ID)
}

func TestReady(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ready(context.Background()))
}
