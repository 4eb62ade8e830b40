package sqlstore

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema contains the statements that set up the database. They run on
// startup and must stay valid for both SQLite and PostgreSQL, so only
// portable types are used (TEXT, INTEGER, BIGINT) and timestamps are Unix
// seconds. Parents are created before children for foreign keys.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    selected_shop_id TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
    token_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    expires_at BIGINT NOT NULL,
    created_at BIGINT NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS shops (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    category TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    timezone TEXT NOT NULL,
    reviews_synced_at BIGINT NOT NULL DEFAULT 0,
    posts_synced_at BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS shop_style_tags (
    shop_id TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    tag TEXT NOT NULL,
    PRIMARY KEY (shop_id, sort_order),
    FOREIGN KEY (shop_id) REFERENCES shops(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS team_members (
    id TEXT PRIMARY KEY,
    shop_id TEXT NOT NULL,
    user_id TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL,
    role TEXT NOT NULL,
    status TEXT NOT NULL,
    invited_by TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    UNIQUE (shop_id, email),
    FOREIGN KEY (shop_id) REFERENCES shops(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
    shop_id TEXT PRIMARY KEY,
    plan TEXT NOT NULL,
    status TEXT NOT NULL,
    renews_at BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    FOREIGN KEY (shop_id) REFERENCES shops(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS ai_usage (
    shop_id TEXT NOT NULL,
    period TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (shop_id, period),
    FOREIGN KEY (shop_id) REFERENCES shops(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS reviews (
    id TEXT PRIMARY KEY,
    shop_id TEXT NOT NULL,
    platform TEXT NOT NULL,
    external_id TEXT NOT NULL,
    author_name TEXT NOT NULL DEFAULT '',
    rating INTEGER NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    review_created_at BIGINT NOT NULL,
    status TEXT NOT NULL,
    ai_response TEXT NOT NULL DEFAULT '',
    ai_generated_at BIGINT NOT NULL DEFAULT 0,
    response TEXT NOT NULL DEFAULT '',
    replied_at BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    UNIQUE (shop_id, platform, external_id),
    FOREIGN KEY (shop_id) REFERENCES shops(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS media_items (
    id TEXT PRIMARY KEY,
    shop_id TEXT NOT NULL,
    url TEXT NOT NULL,
    kind TEXT NOT NULL,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    alt_text TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    FOREIGN KEY (shop_id) REFERENCES shops(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    shop_id TEXT NOT NULL,
    caption TEXT NOT NULL DEFAULT '',
    hashtags TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    scheduled_at BIGINT NOT NULL DEFAULT 0,
    published_at BIGINT NOT NULL DEFAULT 0,
    failure_reason TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    FOREIGN KEY (shop_id) REFERENCES shops(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS post_media (
    post_id TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    media_id TEXT NOT NULL,
    PRIMARY KEY (post_id, sort_order),
    FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
    FOREIGN KEY (media_id) REFERENCES media_items(id) ON DELETE CASCADE
)`,

	`CREATE INDEX IF NOT EXISTS idx_team_members_user_id ON team_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_shop_created ON reviews(shop_id, review_created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_shop_status ON reviews(shop_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_shop_id ON posts(shop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_status_scheduled ON posts(status, scheduled_at)`,
	`CREATE INDEX IF NOT EXISTS idx_media_items_shop_id ON media_items(shop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_post_media_media_id ON post_media(media_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
}

// runMigrations executes the schema setup one statement at a time.
func runMigrations(db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
