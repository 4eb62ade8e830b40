// Package calendar buckets posts into local calendar days for the posting
// calendar view.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/salonmate/salonmate/internal/models"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// MaxRangeDays bounds a single calendar request to one quarter.
const MaxRangeDays = 92

var (
	ErrInvalidDate  = errors.New("date must be formatted as YYYY-MM-DD")
	ErrRangeOrder   = errors.New("start must not be after end")
	ErrRangeTooLong = fmt.Errorf("range must cover at most %d days", MaxRangeDays)
)

// DateError reports which bound of a range failed to parse. It matches
// ErrInvalidDate with errors.Is.
type DateError struct {
	Param string
}

func (e *DateError) Error() string { return e.Param + ": " + ErrInvalidDate.Error() }

func (e *DateError) Unwrap() error { return ErrInvalidDate }

// Range is an inclusive span of local dates.
type Range struct {
	// From is local midnight of the first day.
	From time.Time
	// Until is local midnight of the day after the last day (exclusive).
	Until time.Time

	days int
}

// ParseRange parses inclusive start and end dates in loc.
func ParseRange(start, end string, loc *time.Location) (Range, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Range{}, &DateError{Param: "start"}
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Range{}, &DateError{Param: "end"}
	}
	if e.Before(s) {
		return Range{}, ErrRangeOrder
	}

	// Both dates were parsed in UTC, so the difference is whole days.
	days := int(e.Sub(s)/(24*time.Hour)) + 1
	if days > MaxRangeDays {
		return Range{}, ErrRangeTooLong
	}

	return Range{
		From:  time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc),
		Until: time.Date(e.Year(), e.Month(), e.Day()+1, 0, 0, 0, 0, loc),
		days:  days,
	}, nil
}

// Days returns the number of calendar days in the range.
func (r Range) Days() int {
	return r.days
}

// Contains reports whether the instant falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.Until)
}

// Entry is one calendar day with its posts.
type Entry struct {
	Date  string
	Posts []*models.Post
}

// Bucket groups posts by the local date of their calendar time. Posts
// without a calendar time or outside the range are skipped. Entries are
// returned for non-empty days only, in ascending date order; posts within a
// day ascend by time, ties broken by ID.
func Bucket(posts []*models.Post, r Range) []Entry {
	loc := r.From.Location()
	byDate := make(map[string][]*models.Post)

	for _, p := range posts {
		ts := p.CalendarTime()
		if ts == 0 {
			continue
		}
		t := time.Unix(ts, 0).In(loc)
		if !r.Contains(t) {
			continue
		}
		date := t.Format(DateLayout)
		byDate[date] = append(byDate[date], p)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	entries := make([]Entry, 0, len(dates))
	for _, d := range dates {
		dayPosts := byDate[d]
		sort.SliceStable(dayPosts, func(i, j int) bool {
			ti, tj := dayPosts[i].CalendarTime(), dayPosts[j].CalendarTime()
			if ti != tj {
				return ti < tj
			}
			return dayPosts[i].ID < dayPosts[j].ID
		})
		entries = append(entries, Entry{Date: d, Posts: dayPosts})
	}
	return entries
}
