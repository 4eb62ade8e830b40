package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/salonmate/salonmate/internal/calendar"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
)

// CalendarView is the posting calendar of a date range.
type CalendarView struct {
	Entries      []calendar.Entry
	LastSyncedAt int64
}

// CalendarService buckets posts into days of the shop's timezone.
type CalendarService struct {
	store storage.Store
}

// NewCalendarService creates a new CalendarService with the given storage backend.
func NewCalendarService(store storage.Store) *CalendarService {
	return &CalendarService{store: store}
}

// Get returns the non-empty days between start and end (inclusive,
// YYYY-MM-DD, in the shop's timezone).
func (s *CalendarService) Get(ctx context.Context, shopID, start, end string) (*CalendarView, error) {
	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	r, err := calendar.ParseRange(start, end, shopLocation(shop))
	if err != nil {
		return nil, calendarError(err)
	}

	posts, err := s.store.ListPostsBetween(ctx, shopID, r.From.Unix(), r.Until.Unix())
	if err != nil {
		slog.Error("Calendar query failed", "shop_id", shopID, "error", err)
		return nil, err
	}

	entries := calendar.Bucket(posts, r)
	slog.Debug("Calendar built", "shop_id", shopID, "days", r.Days(), "entries", len(entries))
	return &CalendarView{Entries: entries, LastSyncedAt: shop.PostsSyncedAt}, nil
}

func calendarError(err error) error {
	var dateErr *calendar.DateError
	switch {
	case errors.As(err, &dateErr):
		return models.NewValidationError(dateErr.Param, calendar.ErrInvalidDate.Error())
	case errors.Is(err, calendar.ErrRangeOrder), errors.Is(err, calendar.ErrRangeTooLong):
		return models.NewValidationError("end", err.Error())
	}
	return err
}
