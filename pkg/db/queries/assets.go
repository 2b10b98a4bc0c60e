// pkg/db/queries/assets.go

package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ASHISH26940/video-studio-api/pkg/db"
	log "github.com/sirupsen/logrus"
)

// PutAsset stores a blob under asset.ID, replacing any earlier payload.
func PutAsset(ctx context.Context, asset *db.Asset) error {
	query := `
        INSERT INTO assets (id, type, content_type, blob)
        VALUES (:id, :type, :content_type, :blob)
        ON CONFLICT (id) DO UPDATE
        SET type = EXCLUDED.type, content_type = EXCLUDED.content_type, blob = EXCLUDED.blob, created_at = now()`

	if _, err := db.DB.NamedExecContext(ctx, query, asset); err != nil {
		log.Errorf("Error storing asset '%s': %v", asset.ID, err)
		return fmt.Errorf("failed to store asset: %w", err)
	}
	log.Debugf("Asset %s stored (%d bytes).", asset.ID, len(asset.Blob))
	return nil
}

// GetAsset returns nil, nil when no asset is stored under id.
func GetAsset(ctx context.Context, id string) (*db.Asset, error) {
	asset := &db.Asset{}
	query := `SELECT id, type, content_type, blob, created_at FROM assets WHERE id = $1`
	if err := db.DB.GetContext(ctx, asset, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("Asset '%s' not found.", id)
			return nil, nil
		}
		log.Errorf("Error finding asset '%s': %v", id, err)
		return nil, fmt.Errorf("error finding asset: %w", err)
	}
	return asset, nil
}

// DeleteAsset removes an asset. Deleting a missing asset is not an error.
func DeleteAsset(ctx context.Context, id string) error {
	if _, err := db.DB.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id); err != nil {
		log.Errorf("Error deleting asset '%s': %v", id, err)
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}
