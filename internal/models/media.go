package models

// MediaKind is the type of a media item.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Valid reports whether k is a known kind.
func (k MediaKind) Valid() bool {
	return k == MediaImage || k == MediaVideo
}

// MediaItem is an uploaded image or video. Only metadata is stored; the
// bytes live wherever URL points.
type MediaItem struct {
	ID        string    `db:"id"`
	ShopID    string    `db:"shop_id"`
	URL       string    `db:"url"`
	Kind      MediaKind `db:"kind"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	AltText   string    `db:"alt_text"`
	CreatedBy string    `db:"created_by"`
	CreatedAt int64     `db:"created_at"`
}
