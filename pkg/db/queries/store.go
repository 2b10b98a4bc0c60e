// pkg/db/queries/store.go

package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/db"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/google/uuid"
)

// Store exposes the query functions in terms of skeleton documents so the
// pipeline and handlers never deal with snapshot encoding.
type Store struct{}

func NewStore() *Store { return &Store{} }

func parseHistoryID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperr.NewValidationError(fmt.Sprintf("invalid history id %q", id), err)
	}
	return parsed, nil
}

// CreateHistory saves a first snapshot of doc and returns the new item id.
func (s *Store) CreateHistory(ctx context.Context, prompt string, doc skeleton.Skeleton) (string, error) {
	snapshot, err := db.EncodeSnapshot(doc)
	if err != nil {
		return "", err
	}
	item, err := CreateHistory(ctx, &db.HistoryItem{Prompt: prompt, Snapshot: snapshot})
	if err != nil {
		return "", err
	}
	return item.ID.String(), nil
}

// UpdateHistory rewrites the snapshot of an item. An empty thumbnail keeps the stored one.
func (s *Store) UpdateHistory(ctx context.Context, id string, doc skeleton.Skeleton, thumbnail string) error {
	parsed, err := parseHistoryID(id)
	if err != nil {
		return err
	}
	snapshot, err := db.EncodeSnapshot(doc)
	if err != nil {
		return err
	}
	thumb := sql.NullString{String: thumbnail, Valid: thumbnail != ""}
	if err := UpdateHistorySnapshot(ctx, parsed, snapshot, thumb); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NewNotFoundError(fmt.Sprintf("history item %s not found", id))
		}
		return err
	}
	return nil
}

// LoadHistory returns the item and its decoded document. found is false when
// no item has that id.
func (s *Store) LoadHistory(ctx context.Context, id string) (*db.HistoryItem, skeleton.Skeleton, bool, error) {
	parsed, err := parseHistoryID(id)
	if err != nil {
		return nil, skeleton.Skeleton{}, false, err
	}
	item, err := GetHistoryByID(ctx, parsed)
	if err != nil || item == nil {
		return nil, skeleton.Skeleton{}, false, err
	}
	doc, err := db.DecodeSnapshot(item.Snapshot)
	if err != nil {
		return nil, skeleton.Skeleton{}, false, err
	}
	return item, doc, true, nil
}

func (s *Store) ListHistory(ctx context.Context, limit int) ([]db.HistoryItem, error) {
	return ListHistory(ctx, limit)
}

func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	parsed, err := parseHistoryID(id)
	if err != nil {
		return err
	}
	if err := DeleteHistory(ctx, parsed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NewNotFoundError(fmt.Sprintf("history item %s not found", id))
		}
		return err
	}
	return nil
}

func (s *Store) PutAsset(ctx context.Context, id string, kind db.AssetType, contentType string, data []byte) error {
	return PutAsset(ctx, &db.Asset{ID: id, Type: kind, ContentType: contentType, Blob: data})
}

func (s *Store) GetAsset(ctx context.Context, id string) (*db.Asset, error) {
	return GetAsset(ctx, id)
}
