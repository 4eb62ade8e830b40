package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/salonmate/salonmate/internal/metrics"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
)

const (
	// DefaultBatchSize bounds the posts handled per tick.
	DefaultBatchSize = 50

	maxFailureReason = 500
)

// Scheduler publishes scheduled posts once they are due.
type Scheduler struct {
	store     storage.Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewScheduler creates a scheduler polling every interval.
func NewScheduler(store storage.Store, publisher Publisher, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
}

// Run polls until ctx is canceled. The first pass runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("Post scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Post scheduler pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("Post scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// Result counts what one pass did. Skipped posts were edited, unscheduled
// or deleted while being published.
type Result struct {
	Published int
	Failed    int
	Skipped   int
}

// RunOnce publishes the posts due now. A publisher error marks the post as
// failed with the error as reason; storage errors abort the pass.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	var res Result

	now := s.now()
	due, err := s.store.ListDuePosts(ctx, now.Unix(), s.batchSize)
	if err != nil {
		return res, err
	}
	if len(due) == 0 {
		return res, nil
	}
	slog.Debug("Publishing due posts", "count", len(due))

	touched := make(map[string]bool)
	for _, post := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		outcome := "published"
		pubErr := s.publisher.Publish(ctx, post)
		if pubErr != nil {
			outcome = "failed"
			err = s.store.MarkPostFailed(ctx, post.ShopID, post.ID, post.ScheduledAt, truncate(pubErr.Error(), maxFailureReason))
		} else {
			err = s.store.MarkPostPublished(ctx, post.ShopID, post.ID, post.ScheduledAt, now.Unix())
		}

		switch {
		case errors.Is(err, models.ErrNotFound):
			res.Skipped++
			slog.Warn("Post changed while publishing, skipped", "shop_id", post.ShopID, "post_id", post.ID, "outcome", outcome)
			continue
		case err != nil:
			return res, err
		case pubErr != nil:
			res.Failed++
			slog.Warn("Post publish failed", "shop_id", post.ShopID, "post_id", post.ID, "error", pubErr)
		default:
			res.Published++
			slog.Info("Post published", "shop_id", post.ShopID, "post_id", post.ID)
		}
		metrics.PostsPublished.WithLabelValues(outcome).Inc()
		touched[post.ShopID] = true
	}

	for shopID := range touched {
		if err := s.store.SetPostsSyncedAt(ctx, shopID, now.Unix()); err != nil {
			slog.Warn("Failed to record posts sync", "shop_id", shopID, "error", err)
		}
	}
	return res, nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
