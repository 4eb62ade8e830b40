package models

// Category is the kind of salon.
type Category string

const (
	CategoryHair  Category = "hair"
	CategoryNail  Category = "nail"
	CategorySkin  Category = "skin"
	CategoryOther Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryHair, CategoryNail, CategorySkin, CategoryOther:
		return true
	}
	return false
}

// DefaultTimezone is used for shops created without a timezone.
// Naver and Kakao are Korean platforms, so most shops are in Seoul.
const DefaultTimezone = "Asia/Seoul"

// Shop represents a tenant's business location.
type Shop struct {
	// ID is the unique identifier for the shop (UUID format).
	ID string `db:"id"`

	// OwnerID is the user who created the shop.
	OwnerID string `db:"owner_id"`

	Name     string   `db:"name"`
	Category Category `db:"category"`
	Address  string   `db:"address"`
	Phone    string   `db:"phone"`

	// Timezone is an IANA zone name. Calendar and analytics dates are
	// computed in this zone.
	Timezone string `db:"timezone"`

	// StyleTags describe the shop's voice and specialties for AI prompts.
	StyleTags []string `db:"-"`

	// ReviewsSyncedAt is the last time reviews were ingested (0 = never).
	ReviewsSyncedAt int64 `db:"reviews_synced_at"`

	// PostsSyncedAt is the last time the post schedule was synced (0 = never).
	PostsSyncedAt int64 `db:"posts_synced_at"`

	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`
}

// ShopWithRole is a shop together with the caller's role on it.
type ShopWithRole struct {
	Shop
	Role Role `db:"role"`
}
