package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	return createDeploymentsTable(db)
}

func createDeploymentsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS deployments (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		rich_menu_id TEXT,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		menu_name TEXT,
		image_bytes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deployments_user ON deployments(user_id);
	CREATE INDEX IF NOT EXISTS idx_deployments_created_at ON deployments(created_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create deployments table: %w", err)
	}

	return nil
}
