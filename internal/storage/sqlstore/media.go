package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/salonmate/salonmate/internal/models"
)

const mediaColumns = `id, shop_id, url, kind, width, height, alt_text, created_by, created_at`

// CreateMedia persists media metadata.
func (s *Store) CreateMedia(ctx context.Context, item *models.MediaItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt == 0 {
		item.CreatedAt = now()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO media_items (`+mediaColumns+`)
		VALUES (:id, :shop_id, :url, :kind, :width, :height, :alt_text, :created_by, :created_at)
	`, item)
	if err != nil {
		return fmt.Errorf("failed to insert media: %w", err)
	}
	return nil
}

// ListMedia returns the shop's media, newest first. An empty kind matches all.
func (s *Store) ListMedia(ctx context.Context, shopID string, kind models.MediaKind) ([]*models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE shop_id = ?`
	args := []interface{}{shopID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	items := []*models.MediaItem{}
	if err := s.db.SelectContext(ctx, &items, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	return items, nil
}

// CountMedia returns how many of ids belong to the shop.
func (s *Store) CountMedia(ctx context.Context, shopID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, shopID)
	for _, id := range ids {
		args = append(args, id)
	}

	var n int
	err := s.db.GetContext(ctx, &n, s.q(`
		SELECT COUNT(*) FROM media_items WHERE shop_id = ? AND id IN (`+inClause(len(ids))+`)
	`), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return n, nil
}

// DeleteMedia removes a media item; posts referencing it drop the reference.
func (s *Store) DeleteMedia(ctx context.Context, shopID, mediaID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM media_items WHERE shop_id = ? AND id = ?`), shopID, mediaID)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return requireAffected(res, "media", mediaID)
}
