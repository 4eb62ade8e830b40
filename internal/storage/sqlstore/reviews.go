package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/salonmate/salonmate/internal/models"
)

const reviewColumns = `id, shop_id, platform, external_id, author_name, rating, content, review_created_at,
	status, ai_response, ai_generated_at, response, replied_at, created_at, updated_at`

// ListReviews returns one page of the shop's reviews, newest first, and the
// total number of reviews matching the filter.
func (s *Store) ListReviews(ctx context.Context, shopID string, filter models.ReviewFilter) ([]*models.Review, int, error) {
	where := []string{"shop_id = ?"}
	args := []interface{}{shopID}
	if filter.Platform != "" {
		where = append(where, "platform = ?")
		args = append(args, filter.Platform)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Rating != 0 {
		where = append(where, "rating = ?")
		args = append(args, filter.Rating)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total, s.q(`SELECT COUNT(*) FROM reviews WHERE `+cond), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	pageArgs := append(append([]interface{}{}, args...), limit, filter.Offset)

	reviews := []*models.Review{}
	err := s.db.SelectContext(ctx, &reviews, s.q(`
		SELECT `+reviewColumns+` FROM reviews
		WHERE `+cond+`
		ORDER BY review_created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

// GetReview retrieves a review of a shop.
func (s *Store) GetReview(ctx context.Context, shopID, reviewID string) (*models.Review, error) {
	review := &models.Review{}
	err := s.db.GetContext(ctx, review,
		s.q(`SELECT `+reviewColumns+` FROM reviews WHERE shop_id = ? AND id = ?`), shopID, reviewID)
	if err != nil {
		return nil, notFound(err, "review", reviewID)
	}
	return review, nil
}

// UpdateReviewReply persists the reply state of a review. A replied review
// is final and reports models.ErrConflict.
func (s *Store) UpdateReviewReply(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = now()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE reviews
		SET status = :status, ai_response = :ai_response, ai_generated_at = :ai_generated_at,
			response = :response, replied_at = :replied_at, updated_at = :updated_at
		WHERE shop_id = :shop_id AND id = :id AND status <> 'replied'
	`, review)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return s.requireOpenReview(ctx, res, review.ShopID, review.ID)
}

// SaveAIResponse stores a generated draft and moves the review to drafted,
// leaving the user's own draft untouched.
func (s *Store) SaveAIResponse(ctx context.Context, shopID, reviewID, text string, generatedAt int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE reviews
		SET ai_response = ?, ai_generated_at = ?, status = ?, updated_at = ?
		WHERE shop_id = ? AND id = ? AND status <> ?
	`), text, generatedAt, models.ReviewDrafted, now(), shopID, reviewID, models.ReviewReplied)
	if err != nil {
		return fmt.Errorf("failed to save ai response: %w", err)
	}
	return s.requireOpenReview(ctx, res, shopID, reviewID)
}

// requireOpenReview explains a zero-row reply update: the review is either
// missing or already replied.
func (s *Store) requireOpenReview(ctx context.Context, res sql.Result, shopID, reviewID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetReview(ctx, shopID, reviewID); err != nil {
		return err
	}
	return fmt.Errorf("review %s is already replied: %w", reviewID, models.ErrConflict)
}

// UpsertReviews inserts or refreshes ingested reviews in one transaction.
func (s *Store) UpsertReviews(ctx context.Context, shopID string, reviews []*models.Review, syncedAt int64) (int, int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE shops SET reviews_synced_at = ? WHERE id = ?`), syncedAt, shopID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to set reviews_synced_at: %w", err)
	}
	if err := requireAffected(res, "shop", shopID); err != nil {
		return 0, 0, err
	}

	ts := now()
	var inserted, updated int
	for _, r := range reviews {
		r.ShopID = shopID

		var existingID string
		err := tx.GetContext(ctx, &existingID, tx.Rebind(`
			SELECT id FROM reviews WHERE shop_id = ? AND platform = ? AND external_id = ?
		`), shopID, r.Platform, r.ExternalID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			if r.ID == "" {
				r.ID = uuid.New().String()
			}
			if r.Status == "" {
				r.Status = models.ReviewPending
			}
			r.CreatedAt, r.UpdatedAt = ts, ts
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO reviews (id, shop_id, platform, external_id, author_name, rating, content,
					review_created_at, status, ai_response, ai_generated_at, response, replied_at,
					created_at, updated_at)
				VALUES (:id, :shop_id, :platform, :external_id, :author_name, :rating, :content,
					:review_created_at, :status, :ai_response, :ai_generated_at, :response, :replied_at,
					:created_at, :updated_at)
			`, r)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to insert review: %w", err)
			}
			inserted++

		case err != nil:
			return 0, 0, fmt.Errorf("failed to look up review: %w", err)

		default:
			r.ID = existingID
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				UPDATE reviews
				SET author_name = ?, rating = ?, content = ?, review_created_at = ?, updated_at = ?
				WHERE id = ?
			`), r.AuthorName, r.Rating, r.Content, r.ReviewCreatedAt, ts, existingID)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to update review: %w", err)
			}
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, updated, nil
}

// ReviewAggregates groups the shop's reviews by platform, status and rating.
func (s *Store) ReviewAggregates(ctx context.Context, shopID string) ([]models.ReviewAggregate, error) {
	aggs := []models.ReviewAggregate{}
	err := s.db.SelectContext(ctx, &aggs, s.q(`
		SELECT platform, status, rating, COUNT(*) AS count
		FROM reviews
		WHERE shop_id = ?
		GROUP BY platform, status, rating
	`), shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	return aggs, nil
}

// ListReviewsCreatedBetween returns reviews posted in [from, until).
func (s *Store) ListReviewsCreatedBetween(ctx context.Context, shopID string, from, until int64) ([]*models.Review, error) {
	reviews := []*models.Review{}
	err := s.db.SelectContext(ctx, &reviews, s.q(`
		SELECT `+reviewColumns+` FROM reviews
		WHERE shop_id = ? AND review_created_at >= ? AND review_created_at < ?
		ORDER BY review_created_at
	`), shopID, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// CountRepliesBetween counts replies published in [from, until) to reviews
// posted before from.
func (s *Store) CountRepliesBetween(ctx context.Context, shopID string, from, until int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.q(`
		SELECT COUNT(*) FROM reviews
		WHERE shop_id = ? AND status = ? AND replied_at >= ? AND replied_at < ? AND review_created_at < ?
	`), shopID, models.ReviewReplied, from, until, from)
	if err != nil {
		return 0, fmt.Errorf("failed to count replies: %w", err)
	}
	return n, nil
}
