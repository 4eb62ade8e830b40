package service

import (
	"context"
	"testing"
	"time"

	"github.com/salonmate/salonmate/internal/analytics"
	"github.com/salonmate/salonmate/internal/models"
)

func TestAnalyticsSummary(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.signup(t, "owner@example.com")
	shop := env.createShop(t, owner, "Salon On")

	seoul, _ := time.LoadLocation(models.DefaultTimezone)
	env.clock.t = time.Date(2031, 5, 20, 15, 0, 0, 0, seoul)
	today := env.clock.t

	env.ingest(t, shop.ID, models.PlatformNaver,
		IngestedReview{ExternalID: "old", Rating: 1, CreatedAt: today.AddDate(0, 0, -40).Unix()},
		IngestedReview{ExternalID: "a", Rating: 5, CreatedAt: today.Add(-time.Hour).Unix()},
		IngestedReview{ExternalID: "b", Rating: 4, CreatedAt: today.AddDate(0, 0, -1).Unix()},
		IngestedReview{ExternalID: "c", Rating: 2, CreatedAt: today.AddDate(0, 0, -3).Unix()},
	)
	for _, id := range []string{"old", "a"} {
		r := findReview(t, env, shop.ID, id)
		if _, err := env.reviews.Publish(ctx, shop.ID, r.ID, ptr("감사합니다")); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	at := today.Add(2 * time.Hour)
	if _, err := env.posts.Create(ctx, shop.ID, owner.ID, PostInput{Caption: "soon", ScheduledAt: &at}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	summary, err := env.analytics.Summary(ctx, shop.ID, 7)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.PeriodDays != 7 || len(summary.DailyReviews) != 7 {
		t.Errorf("unexpected window %d/%d", summary.PeriodDays, len(summary.DailyReviews))
	}
	if summary.NewReviews != 3 || summary.AverageRating != 3.67 {
		t.Errorf("unexpected reviews %d avg %v", summary.NewReviews, summary.AverageRating)
	}
	if summary.ResponsesPublished != 2 || summary.ResponseRate != 33.3 {
		t.Errorf("unexpected responses %d rate %v", summary.ResponsesPublished, summary.ResponseRate)
	}
	if summary.RatingDistribution[1] != 0 || summary.RatingDistribution[5] != 1 {
		t.Errorf("unexpected distribution %v", summary.RatingDistribution)
	}
	if summary.PostsScheduled != 1 || summary.PostsPublished != 0 {
		t.Errorf("unexpected posts %d/%d", summary.PostsScheduled, summary.PostsPublished)
	}
	last := summary.DailyReviews[6]
	if last.Date != "2031-05-20" || last.Count != 1 {
		t.Errorf("unexpected last day %+v", last)
	}

	def, err := env.analytics.Summary(ctx, shop.ID, 0)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if def.PeriodDays != analytics.DefaultWindowDays {
		t.Errorf("expected default window, got %d", def.PeriodDays)
	}

	for _, days := range []int{-1, analytics.MaxWindowDays + 1} {
		_, err := env.analytics.Summary(ctx, shop.ID, days)
		assertValidation(t, err, "days")
	}
}
