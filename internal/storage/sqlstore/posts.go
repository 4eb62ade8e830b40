package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salonmate/salonmate/internal/models"
)

const postColumns = `id, shop_id, caption, hashtags, status, scheduled_at, published_at, failure_reason,
	created_by, created_at, updated_at`

// postRow adds the stored form of the hashtag list. Hashtags never contain
// whitespace, so they are kept space-separated in one column.
type postRow struct {
	models.Post
	HashtagsText string `db:"hashtags"`
}

func toPostRow(p *models.Post) *postRow {
	return &postRow{Post: *p, HashtagsText: strings.Join(p.Hashtags, " ")}
}

func (r *postRow) toPost() *models.Post {
	p := r.Post
	p.Hashtags = strings.Fields(r.HashtagsText)
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	p.MediaIDs = []string{}
	return &p
}

// CreatePost persists a new post and its media references.
func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	ts := now()
	if post.CreatedAt == 0 {
		post.CreatedAt = ts
	}
	post.UpdatedAt = ts

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO posts (id, shop_id, caption, hashtags, status, scheduled_at, published_at,
			failure_reason, created_by, created_at, updated_at)
		VALUES (:id, :shop_id, :caption, :hashtags, :status, :scheduled_at, :published_at,
			:failure_reason, :created_by, :created_at, :updated_at)
	`, toPostRow(post))
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	if err := insertPostMedia(ctx, tx, post.ID, post.MediaIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPost retrieves a post of a shop, including its media IDs.
func (s *Store) GetPost(ctx context.Context, shopID, postID string) (*models.Post, error) {
	row := &postRow{}
	err := s.db.GetContext(ctx, row,
		s.q(`SELECT `+postColumns+` FROM posts WHERE shop_id = ? AND id = ?`), shopID, postID)
	if err != nil {
		return nil, notFound(err, "post", postID)
	}

	posts := []*models.Post{row.toPost()}
	if err := s.attachMedia(ctx, posts); err != nil {
		return nil, err
	}
	return posts[0], nil
}

// UpdatePost overwrites a post and replaces its media references.
func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx, `
		UPDATE posts
		SET caption = :caption, hashtags = :hashtags, status = :status, scheduled_at = :scheduled_at,
			published_at = :published_at, failure_reason = :failure_reason, updated_at = :updated_at
		WHERE shop_id = :shop_id AND id = :id
	`, toPostRow(post))
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if err := requireAffected(res, "post", post.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM post_media WHERE post_id = ?`), post.ID); err != nil {
		return fmt.Errorf("failed to clear post media: %w", err)
	}
	if err := insertPostMedia(ctx, tx, post.ID, post.MediaIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MarkPostPublished records a successful publication of a scheduled post.
func (s *Store) MarkPostPublished(ctx context.Context, shopID, postID string, scheduledAt, publishedAt int64) error {
	return s.finishScheduledPost(ctx, shopID, postID, scheduledAt, models.PostPublished, publishedAt, "")
}

// MarkPostFailed records a failed publication of a scheduled post.
func (s *Store) MarkPostFailed(ctx context.Context, shopID, postID string, scheduledAt int64, reason string) error {
	return s.finishScheduledPost(ctx, shopID, postID, scheduledAt, models.PostFailed, 0, reason)
}

// finishScheduledPost only touches the post while it is still scheduled for
// scheduledAt; anything else reports models.ErrNotFound.
func (s *Store) finishScheduledPost(ctx context.Context, shopID, postID string, scheduledAt int64, status models.PostStatus, publishedAt int64, reason string) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE posts
		SET status = ?, published_at = ?, failure_reason = ?, updated_at = ?
		WHERE shop_id = ? AND id = ? AND status = ? AND scheduled_at = ?
	`), status, publishedAt, reason, now(), shopID, postID, models.PostScheduled, scheduledAt)
	if err != nil {
		return fmt.Errorf("failed to finish post: %w", err)
	}
	return requireAffected(res, "scheduled post", postID)
}

// DeletePost removes a post of a shop.
func (s *Store) DeletePost(ctx context.Context, shopID, postID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM posts WHERE shop_id = ? AND id = ?`), shopID, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireAffected(res, "post", postID)
}

// ListPosts returns the shop's posts, newest first.
func (s *Store) ListPosts(ctx context.Context, shopID string, status models.PostStatus) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE shop_id = ?`
	args := []interface{}{shopID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return s.selectPosts(ctx, query, args...)
}

// ListPostsBetween returns posts whose calendar time falls in [from, until):
// published posts by published_at, all others by scheduled_at.
func (s *Store) ListPostsBetween(ctx context.Context, shopID string, from, until int64) ([]*models.Post, error) {
	return s.selectPosts(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE shop_id = ? AND (
			(status = ? AND published_at >= ? AND published_at < ?)
			OR (status <> ? AND scheduled_at >= ? AND scheduled_at < ?)
		)
		ORDER BY scheduled_at, id
	`, shopID,
		models.PostPublished, from, until,
		models.PostPublished, from, until,
	)
}

// ListDuePosts returns scheduled posts whose time has come, oldest first.
func (s *Store) ListDuePosts(ctx context.Context, now int64, limit int) ([]*models.Post, error) {
	return s.selectPosts(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE status = ? AND scheduled_at > 0 AND scheduled_at <= ?
		ORDER BY scheduled_at, id
		LIMIT ?
	`, models.PostScheduled, now, limit)
}

func (s *Store) selectPosts(ctx context.Context, query string, args ...interface{}) ([]*models.Post, error) {
	rows := []*postRow{}
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]*models.Post, len(rows))
	for i, r := range rows {
		posts[i] = r.toPost()
	}
	if err := s.attachMedia(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// attachMedia loads media IDs for all posts with one query.
func (s *Store) attachMedia(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[string]*models.Post, len(posts))
	args := make([]interface{}, len(posts))
	for i, p := range posts {
		byID[p.ID] = p
		args[i] = p.ID
	}

	var refs []struct {
		PostID  string `db:"post_id"`
		MediaID string `db:"media_id"`
	}
	err := s.db.SelectContext(ctx, &refs, s.q(`
		SELECT post_id, media_id FROM post_media
		WHERE post_id IN (`+inClause(len(posts))+`)
		ORDER BY post_id, sort_order
	`), args...)
	if err != nil {
		return fmt.Errorf("failed to get post media: %w", err)
	}

	for _, ref := range refs {
		p := byID[ref.PostID]
		p.MediaIDs = append(p.MediaIDs, ref.MediaID)
	}
	return nil
}

func insertPostMedia(ctx context.Context, tx *sqlx.Tx, postID string, mediaIDs []string) error {
	for i, mediaID := range mediaIDs {
		_, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO post_media (post_id, sort_order, media_id) VALUES (?, ?, ?)`),
			postID, i, mediaID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert post media: %w", err)
		}
	}
	return nil
}
