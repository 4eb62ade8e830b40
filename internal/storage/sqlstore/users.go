package sqlstore

import (
	"context"
	"fmt"

	"github.com/salonmate/salonmate/internal/models"
)

const userColumns = `id, email, display_name, password_hash, selected_shop_id, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, display_name, password_hash, selected_shop_id, created_at, updated_at)
		VALUES (:id, :email, :display_name, :password_hash, :selected_shop_id, :created_at, :updated_at)
	`

	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user, s.q(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

// SetSelectedShop stores the user's selected shop.
func (s *Store) SetSelectedShop(ctx context.Context, userID, shopID string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE users SET selected_shop_id = ?, updated_at = ? WHERE id = ?`),
		shopID, now(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set selected shop: %w", err)
	}
	return requireAffected(res, "user", userID)
}

// CreateRefreshToken stores a hashed refresh token.
func (s *Store) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.CreatedAt == 0 {
		token.CreatedAt = now()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO refresh_tokens (token_hash, user_id, expires_at, created_at)
		VALUES (:token_hash, :user_id, :expires_at, :created_at)
	`, token)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken deletes and returns a token that has not expired.
// Expired tokens are deleted as well but reported as not found.
func (s *Store) ConsumeRefreshToken(ctx context.Context, tokenHash string, now int64) (*models.RefreshToken, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	token := &models.RefreshToken{}
	err = tx.GetContext(ctx, token,
		tx.Rebind(`SELECT token_hash, user_id, expires_at, created_at FROM refresh_tokens WHERE token_hash = ?`),
		tokenHash,
	)
	if err != nil {
		return nil, notFound(err, "refresh token", "")
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM refresh_tokens WHERE token_hash = ?`), tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to delete refresh token: %w", err)
	}
	// A concurrent refresh already consumed it.
	if err := requireAffected(res, "refresh token", ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if token.ExpiresAt <= now {
		return nil, fmt.Errorf("refresh token expired: %w", models.ErrNotFound)
	}
	return token, nil
}

// DeleteRefreshToken removes a token. Deleting an unknown token is not an error.
func (s *Store) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM refresh_tokens WHERE token_hash = ?`), tokenHash); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
