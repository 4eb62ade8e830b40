package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salonmate/salonmate/internal/models"
)

const shopColumns = `s.id, s.owner_id, s.name, s.category, s.address, s.phone, s.timezone,
	s.reviews_synced_at, s.posts_synced_at, s.created_at, s.updated_at`

// CreateShop persists a new shop together with the owner's membership and
// a free subscription.
func (s *Store) CreateShop(ctx context.Context, shop *models.Shop) error {
	// Generate IDs if not set
	if shop.ID == "" {
		shop.ID = uuid.New().String()
	}
	ts := now()
	if shop.CreatedAt == 0 {
		shop.CreatedAt = ts
	}
	shop.UpdatedAt = ts

	owner, err := s.GetUserByID(ctx, shop.OwnerID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO shops (id, owner_id, name, category, address, phone, timezone,
			reviews_synced_at, posts_synced_at, created_at, updated_at)
		VALUES (:id, :owner_id, :name, :category, :address, :phone, :timezone,
			:reviews_synced_at, :posts_synced_at, :created_at, :updated_at)
	`, shop)
	if err != nil {
		return fmt.Errorf("failed to insert shop: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO team_members (id, shop_id, user_id, email, role, status, invited_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, '', ?)`),
		uuid.New().String(), shop.ID, owner.ID, owner.Email, models.RoleOwner, models.MemberActive, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner membership: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO subscriptions (shop_id, plan, status, renews_at, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)`),
		shop.ID, models.PlanFree, models.SubscriptionActive, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}

	if err := insertStyleTags(ctx, tx, shop.ID, shop.StyleTags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetShop retrieves a shop by ID, including its style tags.
func (s *Store) GetShop(ctx context.Context, shopID string) (*models.Shop, error) {
	shop := &models.Shop{}
	err := s.db.GetContext(ctx, shop, s.q(`SELECT `+shopColumns+` FROM shops s WHERE s.id = ?`), shopID)
	if err != nil {
		return nil, notFound(err, "shop", shopID)
	}

	tags := []string{}
	err = s.db.SelectContext(ctx, &tags,
		s.q(`SELECT tag FROM shop_style_tags WHERE shop_id = ? ORDER BY sort_order`), shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to get style tags: %w", err)
	}
	shop.StyleTags = tags

	return shop, nil
}

// UpdateShop updates the editable shop fields.
func (s *Store) UpdateShop(ctx context.Context, shop *models.Shop) error {
	shop.UpdatedAt = now()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE shops
		SET name = :name, category = :category, address = :address, phone = :phone,
			timezone = :timezone, updated_at = :updated_at
		WHERE id = :id
	`, shop)
	if err != nil {
		return fmt.Errorf("failed to update shop: %w", err)
	}
	return requireAffected(res, "shop", shop.ID)
}

// DeleteShop removes a shop; dependent rows cascade.
func (s *Store) DeleteShop(ctx context.Context, shopID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM shops WHERE id = ?`), shopID)
	if err != nil {
		return fmt.Errorf("failed to delete shop: %w", err)
	}
	if err := requireAffected(res, "shop", shopID); err != nil {
		return err
	}

	// Users who had this shop selected fall back to the default selection.
	if _, err := s.db.ExecContext(ctx,
		s.q(`UPDATE users SET selected_shop_id = '' WHERE selected_shop_id = ?`), shopID); err != nil {
		return fmt.Errorf("failed to clear selected shop: %w", err)
	}
	return nil
}

// ListShopsForUser returns the shops the user is an active member of.
func (s *Store) ListShopsForUser(ctx context.Context, userID string) ([]*models.ShopWithRole, error) {
	shops := []*models.ShopWithRole{}
	err := s.db.SelectContext(ctx, &shops, s.q(`
		SELECT `+shopColumns+`, tm.role
		FROM shops s
		JOIN team_members tm ON tm.shop_id = s.id
		WHERE tm.user_id = ? AND tm.status = ?
		ORDER BY s.created_at, s.id
	`), userID, models.MemberActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	return shops, nil
}

// GetMemberRole returns the user's role on the shop.
func (s *Store) GetMemberRole(ctx context.Context, shopID, userID string) (models.Role, error) {
	var role models.Role
	err := s.db.GetContext(ctx, &role, s.q(`
		SELECT role FROM team_members
		WHERE shop_id = ? AND user_id = ? AND status = ?
	`), shopID, userID, models.MemberActive)
	if err != nil {
		return "", notFound(err, "shop membership", shopID)
	}
	return role, nil
}

// SetStyleTags replaces the shop's style tags.
func (s *Store) SetStyleTags(ctx context.Context, shopID string, tags []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM shop_style_tags WHERE shop_id = ?`), shopID); err != nil {
		return fmt.Errorf("failed to clear style tags: %w", err)
	}
	if err := insertStyleTags(ctx, tx, shopID, tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertStyleTags(ctx context.Context, tx *sqlx.Tx, shopID string, tags []string) error {
	for i, tag := range tags {
		_, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO shop_style_tags (shop_id, sort_order, tag) VALUES (?, ?, ?)`),
			shopID, i, tag,
		)
		if err != nil {
			return fmt.Errorf("failed to insert style tag: %w", err)
		}
	}
	return nil
}

// SetPostsSyncedAt records when the shop's post schedule was last synced.
func (s *Store) SetPostsSyncedAt(ctx context.Context, shopID string, ts int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE shops SET posts_synced_at = ? WHERE id = ?`), ts, shopID)
	if err != nil {
		return fmt.Errorf("failed to set posts_synced_at: %w", err)
	}
	return requireAffected(res, "shop", shopID)
}
