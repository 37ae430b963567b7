package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Deployment is one row of the deployment audit log.
type Deployment struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	UserID     string    `json:"userId,omitempty"`
	RichMenuID string    `json:"richMenuId,omitempty"`
	Mode       string    `json:"mode"`   // gateway or direct
	Status     string    `json:"status"` // success or error
	Error      string    `json:"error,omitempty"`
	MenuName   string    `json:"menuName,omitempty"`
	ImageBytes int64     `json:"imageBytes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RecordDeployment inserts a deployment attempt into the audit log.
func (db *DB) RecordDeployment(ctx context.Context, d Deployment) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO deployments (id, session_id, user_id, rich_menu_id, mode, status, error, menu_name, image_bytes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.ExecContext(ctx, query,
		d.ID, d.SessionID, d.UserID, d.RichMenuID, d.Mode, d.Status, d.Error, d.MenuName, d.ImageBytes, d.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record deployment: %w", err)
	}
	return nil
}

// ListDeployments returns the most recent deployments for a user, newest first.
// An empty userID returns deployments across all users.
func (db *DB) ListDeployments(ctx context.Context, userID string, limit int) ([]Deployment, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if userID == "" {
		query := `
		SELECT id, session_id, user_id, rich_menu_id, mode, status, error, menu_name, image_bytes, created_at
		FROM deployments ORDER BY created_at DESC LIMIT ?
		`
		rows, err = db.conn.QueryContext(ctx, query, limit)
	} else {
		query := `
		SELECT id, session_id, user_id, rich_menu_id, mode, status, error, menu_name, image_bytes, created_at
		FROM deployments WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
		`
		rows, err = db.conn.QueryContext(ctx, query, userID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	defer rows.Close()

	var deployments []Deployment
	for rows.Next() {
		var (
			d         Deployment
			createdAt int64
		)
		if err := rows.Scan(&d.ID, &d.SessionID, &d.UserID, &d.RichMenuID, &d.Mode, &d.Status, &d.Error, &d.MenuName, &d.ImageBytes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		d.CreatedAt = time.Unix(createdAt, 0)
		deployments = append(deployments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deployments: %w", err)
	}

	return deployments, nil
}

// CountDeployments returns the total number of audit rows.
func (db *DB) CountDeployments(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM deployments`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count deployments: %w", err)
	}
	return count, nil
}

// PruneDeployments deletes audit rows older than the retention window.
// Returns the number of rows removed.
func (db *DB) PruneDeployments(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	result, err := db.conn.ExecContext(ctx, `DELETE FROM deployments WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune deployments: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}
	return removed, nil
}
