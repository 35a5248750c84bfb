package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

const assetColumns = `id, team_id, type, name, url, created_at`

// ListAssets returns the team's assets, newest first.
func (s *Store) ListAssets(ctx context.Context, teamID string) ([]storage.AssetRow, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := required("team id", teamID); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE team_id = ? ORDER BY created_at DESC, id DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]storage.AssetRow, 0)
	for rows.Next() {
		row, err := scanAssetRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// GetAsset fetches one of the team's assets.
func (s *Store) GetAsset(ctx context.Context, teamID, assetID string) (storage.AssetRow, error) {
	if err := s.ready(ctx); err != nil {
		return storage.AssetRow{}, err
	}
	if err := required("team id", teamID); err != nil {
		return storage.AssetRow{}, err
	}
	if err := required("asset id", assetID); err != nil {
		return storage.AssetRow{}, err
	}

	row, err := scanAssetRow(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE team_id = ? AND id = ?`, teamID, assetID))
	if err != nil {
		if notFound(err) {
			return storage.AssetRow{}, storage.ErrNotFound
		}
		return storage.AssetRow{}, fmt.Errorf("get asset: %w", err)
	}
	return row, nil
}

// PutAsset upserts asset metadata and, when object is non-nil, its content,
// in one transaction.
func (s *Store) PutAsset(ctx context.Context, row storage.AssetRow, object *storage.AssetObjectRow) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("asset id", row.ID); err != nil {
		return err
	}
	if err := required("team id", row.TeamID); err != nil {
		return err
	}
	if err := required("asset type", row.Type); err != nil {
		return err
	}
	if err := required("asset name", row.Name); err != nil {
		return err
	}
	if row.CreatedAt == 0 {
		row.CreatedAt = s.nowMillis()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put asset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
INSERT INTO assets (`+assetColumns+`)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	type = excluded.type,
	name = excluded.name,
	url = excluded.url
WHERE assets.team_id = excluded.team_id
`,
		row.ID,
		row.TeamID,
		row.Type,
		row.Name,
		row.URL,
		row.CreatedAt,
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("put asset: %w", storage.ErrConflict)
		}
		return fmt.Errorf("put asset: %w", err)
	}
	if err := affectedOrNotFound(result); err != nil {
		return fmt.Errorf("put asset: %w", storage.ErrConflict)
	}

	if object != nil {
		contentType := object.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO asset_objects (asset_id, content_type, size_bytes, data)
VALUES (?, ?, ?, ?)
ON CONFLICT(asset_id) DO UPDATE SET
	content_type = excluded.content_type,
	size_bytes = excluded.size_bytes,
	data = excluded.data
`, row.ID, contentType, len(object.Data), object.Data); err != nil {
			return fmt.Errorf("put asset object: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put asset: %w", err)
	}
	return nil
}

// GetAssetObject returns the stored content of one team asset.
func (s *Store) GetAssetObject(ctx context.Context, teamID, assetID string) (storage.AssetObjectRow, error) {
	if err := s.ready(ctx); err != nil {
		return storage.AssetObjectRow{}, err
	}
	if err := required("team id", teamID); err != nil {
		return storage.AssetObjectRow{}, err
	}
	if err := required("asset id", assetID); err != nil {
		return storage.AssetObjectRow{}, err
	}

	var object storage.AssetObjectRow
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT o.asset_id, o.content_type, o.data
FROM asset_objects o
JOIN assets a ON a.id = o.asset_id
WHERE a.team_id = ? AND a.id = ?
`, teamID, assetID).Scan(&object.AssetID, &object.ContentType, &object.Data)
	if err != nil {
		if notFound(err) {
			return storage.AssetObjectRow{}, storage.ErrNotFound
		}
		return storage.AssetObjectRow{}, fmt.Errorf("get asset object: %w", err)
	}
	return object, nil
}

// DeleteAsset removes one team asset and its stored content.
func (s *Store) DeleteAsset(ctx context.Context, teamID, assetID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("team id", teamID); err != nil {
		return err
	}
	if err := required("asset id", assetID); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM assets WHERE team_id = ? AND id = ?`, teamID, assetID)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return affectedOrNotFound(result)
}

func scanAssetRow(scanner interface{ Scan(...any) error }) (storage.AssetRow, error) {
	var row storage.AssetRow
	err := scanner.Scan(&row.ID, &row.TeamID, &row.Type, &row.Name, &row.URL, &row.CreatedAt)
	return row, err
}
