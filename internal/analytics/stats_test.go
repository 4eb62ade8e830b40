package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/salonmate/salonmate/internal/models"
)

func TestComputeReviewStats(t *testing.T) {
	tests := []struct {
		name         string
		aggs         []models.ReviewAggregate
		validateFunc func(t *testing.T, s ReviewStats)
	}{
		{
			name: "no reviews",
			aggs: nil,
			validateFunc: func(t *testing.T, s ReviewStats) {
				if s.TotalReviews != 0 || s.AverageRating != 0 || s.ResponseRate != 0 || s.PendingCount != 0 {
					t.Errorf("expected zero stats, got %+v", s)
				}
				if len(s.ByPlatform) != 0 {
					t.Errorf("expected no platforms, got %v", s.ByPlatform)
				}
			},
		},
		{
			name: "two platforms with mixed status",
			aggs: []models.ReviewAggregate{
				{Platform: models.PlatformGoogle, Status: models.ReviewReplied, Rating: 5, Count: 2},
				{Platform: models.PlatformGoogle, Status: models.ReviewPending, Rating: 4, Count: 1},
				{Platform: models.PlatformNaver, Status: models.ReviewDrafted, Rating: 3, Count: 1},
				{Platform: models.PlatformNaver, Status: models.ReviewPending, Rating: 1, Count: 2},
			},
			validateFunc: func(t *testing.T, s ReviewStats) {
				// 6 reviews, stars = 10 + 4 + 3 + 2 = 19 -> 3.1666 -> 3.17
				if s.TotalReviews != 6 {
					t.Errorf("TotalReviews = %d, want 6", s.TotalReviews)
				}
				if math.Abs(s.AverageRating-3.17) > 0.001 {
					t.Errorf("AverageRating = %v, want 3.17", s.AverageRating)
				}
				// 2 of 6 replied -> 33.3%
				if math.Abs(s.ResponseRate-33.3) > 0.001 {
					t.Errorf("ResponseRate = %v, want 33.3", s.ResponseRate)
				}
				if s.PendingCount != 4 {
					t.Errorf("PendingCount = %d, want 4", s.PendingCount)
				}

				google := s.ByPlatform[models.PlatformGoogle]
				if google.TotalReviews != 3 || google.PendingCount != 1 {
					t.Errorf("google = %+v", google)
				}
				if math.Abs(google.AverageRating-4.67) > 0.001 {
					t.Errorf("google average = %v, want 4.67", google.AverageRating)
				}

				naver := s.ByPlatform[models.PlatformNaver]
				if naver.TotalReviews != 3 || naver.PendingCount != 3 {
					t.Errorf("naver = %+v", naver)
				}

				if _, ok := s.ByPlatform[models.PlatformKakao]; ok {
					t.Error("kakao has no reviews and should be absent")
				}
			},
		},
		{
			name: "zero count rows are ignored",
			aggs: []models.ReviewAggregate{
				{Platform: models.PlatformKakao, Status: models.ReviewPending, Rating: 5, Count: 0},
			},
			validateFunc: func(t *testing.T, s ReviewStats) {
				if s.TotalReviews != 0 || len(s.ByPlatform) != 0 {
					t.Errorf("expected empty stats, got %+v", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateFunc(t, ComputeReviewStats(tt.aggs))
		})
	}
}

func TestSummarize(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, loc)

	w, err := NewWindow(7, now, loc)
	if err != nil {
		t.Fatalf("NewWindow failed: %v", err)
	}
	if !w.From.Equal(time.Date(2026, 5, 4, 0, 0, 0, 0, loc)) {
		t.Errorf("From = %v", w.From)
	}

	at := func(day, hour int) int64 {
		return time.Date(2026, 5, day, hour, 0, 0, 0, loc).Unix()
	}

	reviews := []*models.Review{
		{Rating: 5, ReviewCreatedAt: at(4, 10), Status: models.ReviewReplied, RepliedAt: at(5, 9)},
		{Rating: 4, ReviewCreatedAt: at(10, 8), Status: models.ReviewPending},
		{Rating: 2, ReviewCreatedAt: at(10, 9), Status: models.ReviewDrafted},
		{Rating: 1, ReviewCreatedAt: at(1, 9), Status: models.ReviewReplied, RepliedAt: at(6, 9)},
	}
	posts := []*models.Post{
		{Status: models.PostPublished, PublishedAt: at(6, 12)},
		{Status: models.PostPublished, PublishedAt: at(1, 12)},
		{Status: models.PostScheduled, ScheduledAt: at(10, 20)},
		{Status: models.PostDraft},
	}

	s := Summarize(w, reviews, 1, posts)

	if s.PeriodDays != 7 {
		t.Errorf("PeriodDays = %d", s.PeriodDays)
	}
	if s.NewReviews != 3 {
		t.Errorf("NewReviews = %d, want 3", s.NewReviews)
	}
	if math.Abs(s.AverageRating-3.67) > 0.001 {
		t.Errorf("AverageRating = %v, want 3.67", s.AverageRating)
	}
	if s.RatingDistribution[5] != 1 || s.RatingDistribution[4] != 1 || s.RatingDistribution[2] != 1 || s.RatingDistribution[1] != 0 {
		t.Errorf("RatingDistribution = %v", s.RatingDistribution)
	}
	// one reply counted from the in-window set plus one passed in
	if s.ResponsesPublished != 2 {
		t.Errorf("ResponsesPublished = %d, want 2", s.ResponsesPublished)
	}
	if math.Abs(s.ResponseRate-33.3) > 0.001 {
		t.Errorf("ResponseRate = %v, want 33.3", s.ResponseRate)
	}
	if s.PostsPublished != 1 || s.PostsScheduled != 1 {
		t.Errorf("posts published/scheduled = %d/%d, want 1/1", s.PostsPublished, s.PostsScheduled)
	}
	if len(s.DailyReviews) != 7 {
		t.Fatalf("DailyReviews has %d days, want 7", len(s.DailyReviews))
	}
	if s.DailyReviews[0].Date != "2026-05-04" || s.DailyReviews[0].Count != 1 {
		t.Errorf("first day = %+v", s.DailyReviews[0])
	}
	if s.DailyReviews[6].Date != "2026-05-10" || s.DailyReviews[6].Count != 2 {
		t.Errorf("last day = %+v", s.DailyReviews[6])
	}
}

func TestNewWindowBounds(t *testing.T) {
	if _, err := NewWindow(0, time.Now(), time.UTC); err == nil {
		t.Error("expected error for 0 days")
	}
	if _, err := NewWindow(MaxWindowDays+1, time.Now(), time.UTC); err == nil {
		t.Error("expected error above the maximum")
	}
}
