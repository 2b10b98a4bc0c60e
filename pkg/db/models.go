package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// HistoryItem is a saved project. Snapshot holds the versioned JSON envelope
// written by EncodeSnapshot.
type HistoryItem struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	Prompt    string         `db:"prompt" json:"prompt"`
	Snapshot  string         `db:"snapshot" json:"-"`
	Thumbnail sql.NullString `db:"thumbnail" json:"-"`
	Timestamp time.Time      `db:"created_at" json:"timestamp"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

type AssetType string

const (
	AssetAudio AssetType = "audio"
	AssetVideo AssetType = "video"
	AssetImage AssetType = "image"
)

// Asset is a binary payload keyed by the scene that owns it.
type Asset struct {
	ID          string    `db:"id"`
	Type        AssetType `db:"type"`
	ContentType string    `db:"content_type"`
	Blob        []byte    `db:"blob"`
	CreatedAt   time.Time `db:"created_at"`
}
