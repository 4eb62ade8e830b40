package models

// Platform is the review source.
type Platform string

const (
	PlatformGoogle Platform = "google"
	PlatformNaver  Platform = "naver"
	PlatformKakao  Platform = "kakao"
)

// Platforms lists all supported platforms in display order.
var Platforms = []Platform{PlatformGoogle, PlatformNaver, PlatformKakao}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformGoogle, PlatformNaver, PlatformKakao:
		return true
	}
	return false
}

// ReviewStatus is the reply state of a review.
type ReviewStatus string

const (
	// ReviewPending has no reply and no saved draft.
	ReviewPending ReviewStatus = "pending"
	// ReviewDrafted has an AI or edited draft that is not yet published.
	ReviewDrafted ReviewStatus = "drafted"
	// ReviewReplied has a published reply.
	ReviewReplied ReviewStatus = "replied"
)

// Valid reports whether s is a known status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewDrafted, ReviewReplied:
		return true
	}
	return false
}

// Review is a customer review ingested from an external platform.
type Review struct {
	// ID is the unique identifier for the review (UUID format).
	ID     string `db:"id"`
	ShopID string `db:"shop_id"`

	Platform Platform `db:"platform"`

	// ExternalID is the platform's own identifier; unique per shop and platform.
	ExternalID string `db:"external_id"`

	AuthorName string `db:"author_name"`
	Rating     int    `db:"rating"`
	Content    string `db:"content"`

	// ReviewCreatedAt is when the customer posted the review on the platform.
	ReviewCreatedAt int64 `db:"review_created_at"`

	Status ReviewStatus `db:"status"`

	// AIResponse is the last generated reply suggestion.
	AIResponse    string `db:"ai_response"`
	AIGeneratedAt int64  `db:"ai_generated_at"`

	// Response is the edited draft, or the published reply once replied.
	Response  string `db:"response"`
	RepliedAt int64  `db:"replied_at"`

	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`
}

// ReviewFilter narrows a review listing. Zero values mean "any".
type ReviewFilter struct {
	Platform Platform
	Status   ReviewStatus
	Rating   int
	Limit    int
	Offset   int
}

// ReviewAggregate is one GROUP BY row over a shop's reviews: the number of
// reviews sharing a platform, status and star rating.
type ReviewAggregate struct {
	Platform Platform     `db:"platform"`
	Status   ReviewStatus `db:"status"`
	Rating   int          `db:"rating"`
	Count    int          `db:"count"`
}
