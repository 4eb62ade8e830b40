// Package service implements the SalonMate use cases on top of storage.
// Services return domain errors from internal/models (and internal/auth for
// credentials); transports map them to status codes.
package service

import (
	"errors"
	"log/slog"
	"time"
	_ "time/tzdata" // shop timezones must resolve on hosts without zoneinfo

	"github.com/salonmate/salonmate/internal/models"
)

// shopLocation returns the shop's timezone, falling back to the default
// zone when the stored name does not resolve.
func shopLocation(shop *models.Shop) *time.Location {
	name := shop.Timezone
	if name == "" {
		name = models.DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("Unknown shop timezone, using default", "shop_id", shop.ID, "timezone", name)
		loc, _ = time.LoadLocation(models.DefaultTimezone)
	}
	return loc
}

// logFailure logs err at Warn for client errors and Error otherwise.
func logFailure(msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if isClientError(err) {
		slog.Warn(msg, attrs...)
		return
	}
	slog.Error(msg, attrs...)
}

func isClientError(err error) bool {
	return models.IsValidation(err) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrForbidden) ||
		errors.Is(err, models.ErrConflict) ||
		errors.Is(err, models.ErrQuotaExceeded)
}
