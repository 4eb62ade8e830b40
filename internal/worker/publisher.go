// Package worker runs background jobs: the scheduled post publisher.
package worker

import (
	"context"
	"log/slog"

	"github.com/salonmate/salonmate/internal/models"
)

// Publisher delivers a post to Instagram.
type Publisher interface {
	Publish(ctx context.Context, post *models.Post) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, post *models.Post) error

func (f PublisherFunc) Publish(ctx context.Context, post *models.Post) error {
	return f(ctx, post)
}

// LocalPublisher records publications without contacting Instagram.
type LocalPublisher struct{}

// Publish only logs the post.
func (LocalPublisher) Publish(_ context.Context, post *models.Post) error {
	slog.Info("Post published locally",
		"shop_id", post.ShopID,
		"post_id", post.ID,
		"hashtags", len(post.Hashtags),
		"media", len(post.MediaIDs),
	)
	return nil
}
