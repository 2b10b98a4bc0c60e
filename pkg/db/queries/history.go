// pkg/db/queries/history.go

package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/db"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateHistory inserts a new history item and fills in its generated columns.
func CreateHistory(ctx context.Context, item *db.HistoryItem) (*db.HistoryItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	query := `
        INSERT INTO history_items (id, prompt, snapshot, thumbnail)
        VALUES (:id, :prompt, :snapshot, :thumbnail)
        RETURNING created_at, updated_at`

	rows, err := db.DB.NamedQueryContext(ctx, query, item)
	if err != nil {
		log.Errorf("Error creating history item: %v", err)
		return nil, fmt.Errorf("failed to create history item: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		log.Error("No rows returned after history item creation.")
		return nil, fmt.Errorf("no rows returned after history item creation")
	}
	if err := rows.StructScan(item); err != nil {
		log.Errorf("Error scanning history item after creation: %v", err)
		return nil, fmt.Errorf("error scanning history item after creation: %w", err)
	}

	log.Infof("History item %s created.", item.ID)
	return item, nil
}

// UpdateHistorySnapshot rewrites the snapshot and, when given, the thumbnail
// of an existing item. It returns sql.ErrNoRows when the item is gone.
func UpdateHistorySnapshot(ctx context.Context, id uuid.UUID, snapshot string, thumbnail sql.NullString) error {
	args := map[string]any{
		"id":         id,
		"snapshot":   snapshot,
		"thumbnail":  thumbnail,
		"updated_at": time.Now().UTC(),
	}
	query := `
        UPDATE history_items
        SET snapshot = :snapshot, thumbnail = COALESCE(:thumbnail, thumbnail), updated_at = :updated_at
        WHERE id = :id`

	result, err := db.DB.NamedExecContext(ctx, query, args)
	if err != nil {
		log.Errorf("Error updating history item '%s': %v", id, err)
		return fmt.Errorf("failed to update history item: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No history item found with ID '%s' for update.", id)
		return sql.ErrNoRows
	}
	return nil
}

// GetHistoryByID returns nil, nil when the item does not exist.
func GetHistoryByID(ctx context.Context, id uuid.UUID) (*db.HistoryItem, error) {
	item := &db.HistoryItem{}
	query := `SELECT id, prompt, snapshot, thumbnail, created_at, updated_at FROM history_items WHERE id = $1`
	if err := db.DB.GetContext(ctx, item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("History item with ID '%s' not found.", id)
			return nil, nil
		}
		log.Errorf("Error finding history item '%s': %v", id, err)
		return nil, fmt.Errorf("error finding history item: %w", err)
	}
	return item, nil
}

// ListHistory returns items newest first without their snapshots.
func ListHistory(ctx context.Context, limit int) ([]db.HistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	items := []db.HistoryItem{}
	query := `SELECT id, prompt, '' AS snapshot, thumbnail, created_at, updated_at
        FROM history_items ORDER BY created_at DESC LIMIT $1`
	if err := db.DB.SelectContext(ctx, &items, query, limit); err != nil {
		log.Errorf("Error listing history items: %v", err)
		return nil, fmt.Errorf("error listing history items: %w", err)
	}
	return items, nil
}

// DeleteHistory removes one item. It returns sql.ErrNoRows when nothing was deleted.
func DeleteHistory(ctx context.Context, id uuid.UUID) error {
	result, err := db.DB.ExecContext(ctx, `DELETE FROM history_items WHERE id = $1`, id)
	if err != nil {
		log.Errorf("Error deleting history item '%s': %v", id, err)
		return fmt.Errorf("failed to delete history item: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No history item found with ID '%s' for deletion.", id)
		return sql.ErrNoRows
	}
	log.Infof("History item %s deleted.", id)
	return nil
}
