package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
)

const MaxAltTextLength = 300

// MediaInput describes an uploaded media item. The file itself lives in
// external object storage; only its URL is recorded.
type MediaInput struct {
	URL     string
	Kind    models.MediaKind
	Width   int
	Height  int
	AltText string
}

// MediaService manages the shop's media library.
type MediaService struct {
	store storage.Store
}

// NewMediaService creates a new MediaService with the given storage backend.
func NewMediaService(store storage.Store) *MediaService {
	return &MediaService{store: store}
}

// List returns the shop's media, newest first. An empty kind matches all.
func (s *MediaService) List(ctx context.Context, shopID string, kind models.MediaKind) ([]*models.MediaItem, error) {
	if kind != "" && !kind.Valid() {
		return nil, models.NewValidationError("kind", "kind must be image or video")
	}
	return s.store.ListMedia(ctx, shopID, kind)
}

// Create records a media item.
func (s *MediaService) Create(ctx context.Context, shopID, userID string, in MediaInput) (*models.MediaItem, error) {
	item := &models.MediaItem{
		ShopID:    shopID,
		URL:       strings.TrimSpace(in.URL),
		Kind:      in.Kind,
		Width:     in.Width,
		Height:    in.Height,
		AltText:   strings.TrimSpace(in.AltText),
		CreatedBy: userID,
	}

	verr := &models.ValidationError{}
	if !isHTTPURL(item.URL) {
		verr.Add("url", "url must be an absolute http or https URL")
	}
	if !item.Kind.Valid() {
		verr.Add("kind", "kind must be image or video")
	}
	if item.Width < 0 {
		verr.Add("width", "width must not be negative")
	}
	if item.Height < 0 {
		verr.Add("height", "height must not be negative")
	}
	if utf8.RuneCountInString(item.AltText) > MaxAltTextLength {
		verr.Add("alt_text", "alt_text must be at most 300 characters")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.store.CreateMedia(ctx, item); err != nil {
		slog.Error("CreateMedia failed", "shop_id", shopID, "error", err)
		return nil, err
	}
	slog.Info("Media created", "shop_id", shopID, "media_id", item.ID, "kind", item.Kind)
	return item, nil
}

// Delete removes a media item. Posts referencing it lose the reference.
func (s *MediaService) Delete(ctx context.Context, shopID, mediaID string) error {
	if err := s.store.DeleteMedia(ctx, shopID, mediaID); err != nil {
		logFailure("DeleteMedia failed", err, "shop_id", shopID, "media_id", mediaID)
		return err
	}
	slog.Info("Media deleted", "shop_id", shopID, "media_id", mediaID)
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
