package sqlstore

import (
	"context"
	"fmt"

	"github.com/salonmate/salonmate/internal/models"
)

// GetSubscription retrieves the shop's subscription.
func (s *Store) GetSubscription(ctx context.Context, shopID string) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := s.db.GetContext(ctx, sub, s.q(`
		SELECT shop_id, plan, status, renews_at, created_at, updated_at
		FROM subscriptions WHERE shop_id = ?
	`), shopID)
	if err != nil {
		return nil, notFound(err, "subscription", shopID)
	}
	return sub, nil
}

// UpsertSubscription creates or replaces the shop's subscription. Billing
// integrations call this when a payment outcome changes the plan.
func (s *Store) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	ts := now()
	if sub.CreatedAt == 0 {
		sub.CreatedAt = ts
	}
	sub.UpdatedAt = ts

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO subscriptions (shop_id, plan, status, renews_at, created_at, updated_at)
		VALUES (:shop_id, :plan, :status, :renews_at, :created_at, :updated_at)
		ON CONFLICT (shop_id) DO UPDATE
		SET plan = excluded.plan, status = excluded.status, renews_at = excluded.renews_at,
			updated_at = excluded.updated_at
	`, sub)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// ConsumeAIGeneration increments the usage counter for the period if the
// limit allows it. The conditional UPDATE keeps concurrent callers from
// overshooting the limit.
func (s *Store) ConsumeAIGeneration(ctx context.Context, shopID, period string, limit int) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE ai_usage SET count = count + 1
		WHERE shop_id = ? AND period = ? AND (? < 0 OR count < ?)
	`), shopID, period, limit, limit)
	if err != nil {
		return fmt.Errorf("failed to record ai usage: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	} else if n == 1 {
		return nil
	}

	// Either the first generation of the period or the limit is reached.
	if limit == 0 {
		return models.ErrQuotaExceeded
	}
	res, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO ai_usage (shop_id, period, count) VALUES (?, ?, 1)
		ON CONFLICT (shop_id, period) DO NOTHING
	`), shopID, period)
	if err != nil {
		return fmt.Errorf("failed to record ai usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return models.ErrQuotaExceeded
	}
	return nil
}

// GetAIUsage returns the number of generations recorded for the period.
func (s *Store) GetAIUsage(ctx context.Context, shopID, period string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.q(`
		SELECT COALESCE(SUM(count), 0) FROM ai_usage WHERE shop_id = ? AND period = ?
	`), shopID, period)
	if err != nil {
		return 0, fmt.Errorf("failed to get ai usage: %w", err)
	}
	return n, nil
}
