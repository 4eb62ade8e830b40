// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/salonmate/salonmate/internal/models"
)

// Store defines the persistence operations used by the services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Lookups of a missing record return an error wrapping models.ErrNotFound.
// Shop-scoped lookups take the shop ID so that a record of another tenant is
// reported as not found.
type Store interface {
	// CreateUser inserts a user. The email must not be registered yet.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// SetSelectedShop persists the user's last selected shop.
	SetSelectedShop(ctx context.Context, userID, shopID string) error

	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// ConsumeRefreshToken deletes the token and returns it. Expired or unknown
	// tokens return models.ErrNotFound.
	ConsumeRefreshToken(ctx context.Context, tokenHash string, now int64) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string) error

	// CreateShop inserts the shop, its owner membership and a free
	// subscription in one transaction.
	CreateShop(ctx context.Context, shop *models.Shop) error
	GetShop(ctx context.Context, shopID string) (*models.Shop, error)
	UpdateShop(ctx context.Context, shop *models.Shop) error
	DeleteShop(ctx context.Context, shopID string) error
	// ListShopsForUser returns shops where the user is an active member,
	// oldest first.
	ListShopsForUser(ctx context.Context, userID string) ([]*models.ShopWithRole, error)
	// GetMemberRole returns the user's active role on the shop.
	GetMemberRole(ctx context.Context, shopID, userID string) (models.Role, error)
	// SetStyleTags replaces the shop's style tags.
	SetStyleTags(ctx context.Context, shopID string, tags []string) error
	SetPostsSyncedAt(ctx context.Context, shopID string, ts int64) error

	ListTeam(ctx context.Context, shopID string) ([]*models.TeamMember, error)
	AddTeamMember(ctx context.Context, member *models.TeamMember) error
	GetTeamMember(ctx context.Context, shopID, memberID string) (*models.TeamMember, error)
	DeleteTeamMember(ctx context.Context, shopID, memberID string) error
	// ActivateInvitations links pending invitations for email to the user and
	// returns how many were activated.
	ActivateInvitations(ctx context.Context, email, userID string) (int, error)

	ListReviews(ctx context.Context, shopID string, filter models.ReviewFilter) ([]*models.Review, int, error)
	GetReview(ctx context.Context, shopID, reviewID string) (*models.Review, error)
	// UpdateReviewReply stores the reply fields (status, AI response,
	// response, timestamps) of the review. Replied reviews are final:
	// updating one returns models.ErrConflict.
	UpdateReviewReply(ctx context.Context, review *models.Review) error
	// SaveAIResponse stores a generated draft and marks the review drafted.
	// Like UpdateReviewReply it refuses replied reviews with ErrConflict.
	SaveAIResponse(ctx context.Context, shopID, reviewID, text string, generatedAt int64) error
	// UpsertReviews inserts new reviews and refreshes platform-owned fields
	// of known ones, keyed by (shop, platform, external ID). Reply state is
	// never overwritten. The shop's reviews_synced_at is set to syncedAt.
	UpsertReviews(ctx context.Context, shopID string, reviews []*models.Review, syncedAt int64) (inserted, updated int, err error)
	ReviewAggregates(ctx context.Context, shopID string) ([]models.ReviewAggregate, error)
	// ListReviewsCreatedBetween returns reviews posted in [from, until).
	ListReviewsCreatedBetween(ctx context.Context, shopID string, from, until int64) ([]*models.Review, error)
	// CountRepliesBetween counts replies published in [from, until) to reviews
	// posted before from.
	CountRepliesBetween(ctx context.Context, shopID string, from, until int64) (int, error)

	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, shopID, postID string) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, shopID, postID string) error
	// ListPosts returns the shop's posts, newest first. An empty status
	// matches all.
	ListPosts(ctx context.Context, shopID string, status models.PostStatus) ([]*models.Post, error)
	// ListPostsBetween returns posts scheduled or published in [from, until).
	ListPostsBetween(ctx context.Context, shopID string, from, until int64) ([]*models.Post, error)
	// ListDuePosts returns scheduled posts of any shop with scheduled_at <= now.
	ListDuePosts(ctx context.Context, now int64, limit int) ([]*models.Post, error)
	// MarkPostPublished and MarkPostFailed update only the publication
	// fields, and only while the post is still scheduled for scheduledAt.
	// A post edited, unscheduled or deleted meanwhile reports
	// models.ErrNotFound.
	MarkPostPublished(ctx context.Context, shopID, postID string, scheduledAt, publishedAt int64) error
	MarkPostFailed(ctx context.Context, shopID, postID string, scheduledAt int64, reason string) error

	CreateMedia(ctx context.Context, item *models.MediaItem) error
	ListMedia(ctx context.Context, shopID string, kind models.MediaKind) ([]*models.MediaItem, error)
	// CountMedia returns how many of ids belong to the shop.
	CountMedia(ctx context.Context, shopID string, ids []string) (int, error)
	DeleteMedia(ctx context.Context, shopID, mediaID string) error

	GetSubscription(ctx context.Context, shopID string) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	// ConsumeAIGeneration records one AI generation for the period unless the
	// limit is reached, in which case it returns models.ErrQuotaExceeded.
	// A negative limit means unlimited.
	ConsumeAIGeneration(ctx context.Context, shopID, period string, limit int) error
	GetAIUsage(ctx context.Context, shopID, period string) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
