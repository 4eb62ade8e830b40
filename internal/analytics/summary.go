package analytics

import (
	"fmt"
	"time"

	"github.com/salonmate/salonmate/internal/models"
)

const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
)

// Window is a trailing span of whole local days ending today.
type Window struct {
	Days  int
	From  time.Time // local midnight of the first day
	Until time.Time // local midnight after today (exclusive)
}

// NewWindow returns the window of the last days days (today included) in loc.
func NewWindow(days int, now time.Time, loc *time.Location) (Window, error) {
	if days < 1 || days > MaxWindowDays {
		return Window{}, fmt.Errorf("days must be between 1 and %d", MaxWindowDays)
	}
	local := now.In(loc)
	until := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	from := time.Date(local.Year(), local.Month(), local.Day()-days+1, 0, 0, 0, 0, loc)
	return Window{Days: days, From: from, Until: until}, nil
}

func (w Window) contains(ts int64) bool {
	if ts == 0 {
		return false
	}
	t := time.Unix(ts, 0)
	return !t.Before(w.From) && t.Before(w.Until)
}

// DailyCount is the number of reviews received on one local date.
type DailyCount struct {
	Date  string
	Count int
}

// Summary is the marketing dashboard for a window.
type Summary struct {
	PeriodDays         int
	NewReviews         int
	AverageRating      float64
	RatingDistribution map[int]int // star (1-5) -> reviews
	ResponsesPublished int
	ResponseRate       float64
	PostsPublished     int
	PostsScheduled     int
	DailyReviews       []DailyCount
}

// Summarize computes the dashboard. reviews should be the reviews received
// in the window; replies published in the window are counted from RepliedAt
// of the same set plus repliedOutside, the replies to older reviews.
// posts may contain any posts of the shop; only those published in the
// window or still scheduled inside it are counted.
func Summarize(w Window, reviews []*models.Review, repliedOutside int, posts []*models.Post) Summary {
	s := Summary{
		PeriodDays:         w.Days,
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		ResponsesPublished: repliedOutside,
	}

	loc := w.From.Location()
	perDay := make(map[string]int)
	var stars, replied int

	for _, r := range reviews {
		if !w.contains(r.ReviewCreatedAt) {
			continue
		}
		s.NewReviews++
		stars += r.Rating
		s.RatingDistribution[r.Rating]++
		perDay[time.Unix(r.ReviewCreatedAt, 0).In(loc).Format("2006-01-02")]++
		if r.Status == models.ReviewReplied {
			replied++
		}
		if w.contains(r.RepliedAt) {
			s.ResponsesPublished++
		}
	}
	if s.NewReviews > 0 {
		s.AverageRating = round(float64(stars)/float64(s.NewReviews), 2)
		s.ResponseRate = round(float64(replied)*100/float64(s.NewReviews), 1)
	}

	for _, p := range posts {
		switch p.Status {
		case models.PostPublished:
			if w.contains(p.PublishedAt) {
				s.PostsPublished++
			}
		case models.PostScheduled:
			if w.contains(p.ScheduledAt) {
				s.PostsScheduled++
			}
		}
	}

	s.DailyReviews = make([]DailyCount, 0, w.Days)
	for d := w.From; d.Before(w.Until); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		s.DailyReviews = append(s.DailyReviews, DailyCount{Date: date, Count: perDay[date]})
	}
	return s
}
