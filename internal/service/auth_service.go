package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/salonmate/salonmate/internal/auth"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
)

// Session is the token pair handed out on signup, login and refresh.
type Session struct {
	User         *models.User
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
}

// Profile is the signed-in user with the shops they can switch between.
type Profile struct {
	User           *models.User
	Shops          []*models.ShopWithRole
	SelectedShopID string
}

// AuthService handles accounts and sessions.
type AuthService struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		store:         store,
		authenticator: authenticator,
		jwtManager:    jwtManager,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Signup creates a new user account and signs it in. Pending team
// invitations addressed to the email are activated.
func (s *AuthService) Signup(ctx context.Context, email, password, displayName string) (*Session, error) {
	slog.Info("Signup request received", "email", email)

	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		err = registrationError(err)
		logFailure("Signup failed", err, "email", email)
		return nil, err
	}

	activated, err := s.store.ActivateInvitations(ctx, user.Email, user.ID)
	if err != nil {
		slog.Error("Failed to activate invitations", "user_id", user.ID, "error", err)
		return nil, err
	}

	slog.Info("User registered successfully", "user_id", user.ID, "invitations_activated", activated)
	return s.issue(ctx, user)
}

func registrationError(err error) error {
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return fmt.Errorf("%w: %w", models.ErrConflict, err)
	case errors.Is(err, auth.ErrInvalidEmail):
		return models.NewValidationError("email", err.Error())
	case errors.Is(err, auth.ErrWeakPassword):
		return models.NewValidationError("password", err.Error())
	}
	return err
}

// Login authenticates a user and returns a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	slog.Info("Login request received", "email", email)

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		slog.Warn("Login failed", "email", email, "error", err)
		return nil, err
	}
	if err != nil {
		slog.Error("Login failed", "email", email, "error", err)
		return nil, err
	}

	slog.Info("User logged in successfully", "user_id", user.ID)
	return s.issue(ctx, user)
}

// Refresh exchanges a refresh token for a new session. The presented token
// is consumed; reusing it fails with auth.ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, auth.ErrMissingToken
	}

	stored, err := s.store.ConsumeRefreshToken(ctx, auth.HashRefreshToken(refreshToken), s.now().Unix())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			slog.Warn("Refresh with unknown or expired token")
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}

	slog.Info("Session refreshed", "user_id", user.ID)
	return s.issue(ctx, user)
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.store.DeleteRefreshToken(ctx, auth.HashRefreshToken(refreshToken)); err != nil {
		slog.Error("Logout failed", "error", err)
		return err
	}
	slog.Info("Refresh token revoked")
	return nil
}

// Me returns the user's profile. requested is the shop the client asks to
// show; the resolved selection is persisted when it changed.
func (s *AuthService) Me(ctx context.Context, userID, requested string) (*Profile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}

	shops, err := s.store.ListShopsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	selected := ResolveSelectedShop(requested, user.SelectedShopID, shops)
	if selected != user.SelectedShopID {
		if err := s.store.SetSelectedShop(ctx, userID, selected); err != nil {
			return nil, err
		}
		user.SelectedShopID = selected
		slog.Info("Selected shop updated", "user_id", userID, "shop_id", selected)
	}

	return &Profile{User: user, Shops: shops, SelectedShopID: selected}, nil
}

// SelectShop persists the user's shop selection. The user must be an active
// member of the shop.
func (s *AuthService) SelectShop(ctx context.Context, userID, shopID string) error {
	if shopID == "" {
		return models.NewValidationError("shop_id", "shop_id is required")
	}
	if _, err := s.store.GetMemberRole(ctx, shopID, userID); err != nil {
		logFailure("SelectShop failed", err, "user_id", userID, "shop_id", shopID)
		return err
	}
	if err := s.store.SetSelectedShop(ctx, userID, shopID); err != nil {
		return err
	}
	slog.Info("Selected shop updated", "user_id", userID, "shop_id", shopID)
	return nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*Session, error) {
	accessToken, expiresAt, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}

	refreshToken, hash, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.store.CreateRefreshToken(ctx, &models.RefreshToken{
		TokenHash: hash,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL).Unix(),
		CreatedAt: now.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		ExpiresAt:    expiresAt,
		RefreshToken: refreshToken,
	}, nil
}
