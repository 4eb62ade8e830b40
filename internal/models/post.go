package models

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
	PostFailed    PostStatus = "failed"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostDraft, PostScheduled, PostPublished, PostFailed:
		return true
	}
	return false
}

// Post is an Instagram content item.
type Post struct {
	// ID is the unique identifier for the post (UUID format).
	ID     string `db:"id"`
	ShopID string `db:"shop_id"`

	Caption string `db:"caption"`

	// Hashtags are normalized ("#tag") and unique case-insensitively.
	Hashtags []string `db:"-"`

	// MediaIDs reference MediaItems of the same shop, in display order.
	MediaIDs []string `db:"-"`

	Status PostStatus `db:"status"`

	// ScheduledAt is when the post should go out (0 = unscheduled).
	ScheduledAt int64 `db:"scheduled_at"`

	// PublishedAt is when the post went out (0 = not yet).
	PublishedAt int64 `db:"published_at"`

	// FailureReason is set when Status is PostFailed.
	FailureReason string `db:"failure_reason"`

	CreatedBy string `db:"created_by"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

// CalendarTime returns the instant used to place the post on the calendar:
// the publish time once published, otherwise the scheduled time.
// Zero means the post has no calendar position.
func (p *Post) CalendarTime() int64 {
	if p.Status == PostPublished && p.PublishedAt != 0 {
		return p.PublishedAt
	}
	return p.ScheduledAt
}
