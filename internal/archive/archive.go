package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/punnathat/richmenu-studio-go/internal/logger"
)

const prefix = "deployments"

// Record describes one archived deployment.
type Record struct {
	DeploymentID string    `json:"deployment_id"`
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	RichMenuID   string    `json:"rich_menu_id,omitempty"`
	Mode         string    `json:"mode"`
	MenuName     string    `json:"menu_name,omitempty"`
	ImageMime    string    `json:"image_mime,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Archiver writes deployment artifacts to R2.
type Archiver struct {
	client *Client
	log    *logger.Logger
}

// NewArchiver creates an Archiver on top of an R2 client.
func NewArchiver(client *Client, log *logger.Logger) *Archiver {
	return &Archiver{
		client: client,
		log:    log.WithModule("archive"),
	}
}

// StoreDeployment archives a successful deployment: the record metadata,
// the zstd-compressed layout JSON, and the raw menu image. Keys are
// deployments/<id>/{record.json, layout.json.zst, image}. The record is
// written conditionally so retries never overwrite an existing archive.
func (a *Archiver) StoreDeployment(ctx context.Context, rec Record, layout, image []byte) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	created, _, err := a.client.PutObjectIfNotExists(ctx, recordKey(rec.DeploymentID), bytes.NewReader(data), "application/json")
	if err != nil {
		return err
	}
	if !created {
		a.log.WithField("deployment_id", rec.DeploymentID).Debug("Deployment already archived")
		return nil
	}

	compressed, err := Compress(layout)
	if err != nil {
		return fmt.Errorf("archive: compress layout: %w", err)
	}
	if _, err := a.client.Upload(ctx, layoutKey(rec.DeploymentID), bytes.NewReader(compressed), "application/zstd"); err != nil {
		return err
	}

	if len(image) > 0 {
		contentType := rec.ImageMime
		if contentType == "" {
			contentType = "image/png"
		}
		if _, err := a.client.Upload(ctx, imageKey(rec.DeploymentID), bytes.NewReader(image), contentType); err != nil {
			return err
		}
	}

	a.log.WithFields(map[string]any{
		"deployment_id": rec.DeploymentID,
		"layout_bytes":  len(compressed),
		"image_bytes":   len(image),
	}).Info("Deployment archived")
	return nil
}

// LoadLayout fetches and decompresses an archived layout.
func (a *Archiver) LoadLayout(ctx context.Context, deploymentID string) ([]byte, error) {
	body, _, err := a.client.Download(ctx, layoutKey(deploymentID))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	compressed, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("archive: read layout: %w", err)
	}
	return Decompress(compressed)
}

func recordKey(deploymentID string) string {
	return path.Join(prefix, deploymentID, "record.json")
}

func layoutKey(deploymentID string) string {
	return path.Join(prefix, deploymentID, "layout.json.zst")
}

func imageKey(deploymentID string) string {
	return path.Join(prefix, deploymentID, "image")
}

// Compress compresses data with zstd.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("archive: create encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("archive: compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("archive: close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses zstd data.
func Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("archive: create decoder: %w", err)
	}
	defer decoder.Close()

	out, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("archive: decompress: %w", err)
	}
	return out, nil
}
