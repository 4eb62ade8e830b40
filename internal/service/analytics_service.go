package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/salonmate/salonmate/internal/analytics"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
)

// AnalyticsService computes the marketing dashboard.
type AnalyticsService struct {
	store storage.Store
	now   func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService with the given storage backend.
func NewAnalyticsService(store storage.Store) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// Summary returns the dashboard of the last days days (0 for the default)
// in the shop's timezone.
func (s *AnalyticsService) Summary(ctx context.Context, shopID string, days int) (*analytics.Summary, error) {
	if days == 0 {
		days = analytics.DefaultWindowDays
	}

	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	w, err := analytics.NewWindow(days, s.now(), shopLocation(shop))
	if err != nil {
		return nil, models.NewValidationError("days", err.Error())
	}
	from, until := w.From.Unix(), w.Until.Unix()

	reviews, err := s.store.ListReviewsCreatedBetween(ctx, shopID, from, until)
	if err != nil {
		slog.Error("Analytics review query failed", "shop_id", shopID, "error", err)
		return nil, err
	}
	repliedOutside, err := s.store.CountRepliesBetween(ctx, shopID, from, until)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.ListPostsBetween(ctx, shopID, from, until)
	if err != nil {
		return nil, err
	}

	summary := analytics.Summarize(w, reviews, repliedOutside, posts)
	return &summary, nil
}
