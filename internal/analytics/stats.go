// Package analytics computes review statistics and marketing summaries for a
// shop from stored reviews and posts.
package analytics

import (
	"math"

	"github.com/salonmate/salonmate/internal/models"
)

// PlatformStats is the per-platform slice of ReviewStats.
type PlatformStats struct {
	TotalReviews  int
	AverageRating float64
	PendingCount  int
}

// ReviewStats summarizes all reviews of a shop.
type ReviewStats struct {
	TotalReviews  int
	AverageRating float64 // rounded to 2 decimals, 0 without reviews

	// ResponseRate is the percentage (0-100, 1 decimal) of reviews with a
	// published reply.
	ResponseRate float64

	// PendingCount counts reviews without a published reply, drafts included.
	PendingCount int

	// ByPlatform only contains platforms that have reviews.
	ByPlatform map[models.Platform]PlatformStats
}

type tally struct {
	total     int
	ratingSum int
	replied   int
}

func (t *tally) add(a models.ReviewAggregate) {
	t.total += a.Count
	t.ratingSum += a.Rating * a.Count
	if a.Status == models.ReviewReplied {
		t.replied += a.Count
	}
}

func (t *tally) average() float64 {
	if t.total == 0 {
		return 0
	}
	return round(float64(t.ratingSum)/float64(t.total), 2)
}

func (t *tally) responseRate() float64 {
	if t.total == 0 {
		return 0
	}
	return round(float64(t.replied)*100/float64(t.total), 1)
}

// ComputeReviewStats folds GROUP BY rows into shop-level statistics.
//
// Algorithm:
//   - every row contributes Count reviews and Rating*Count stars to the shop
//     tally and to its platform's tally
//   - average = stars / reviews, response rate = replied / reviews * 100
//   - pending = reviews - replied
func ComputeReviewStats(aggs []models.ReviewAggregate) ReviewStats {
	var shop tally
	platforms := make(map[models.Platform]*tally)

	for _, a := range aggs {
		if a.Count <= 0 {
			continue
		}
		shop.add(a)
		pt, ok := platforms[a.Platform]
		if !ok {
			pt = &tally{}
			platforms[a.Platform] = pt
		}
		pt.add(a)
	}

	stats := ReviewStats{
		TotalReviews:  shop.total,
		AverageRating: shop.average(),
		ResponseRate:  shop.responseRate(),
		PendingCount:  shop.total - shop.replied,
		ByPlatform:    make(map[models.Platform]PlatformStats, len(platforms)),
	}
	for p, t := range platforms {
		stats.ByPlatform[p] = PlatformStats{
			TotalReviews:  t.total,
			AverageRating: t.average(),
			PendingCount:  t.total - t.replied,
		}
	}
	return stats
}

// round rounds x half away from zero to the given number of decimals.
func round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
