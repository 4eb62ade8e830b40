package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/salonmate/salonmate/internal/models"
)

// memoryUsers is an in-memory UserStorage for tests.
type memoryUsers struct {
	byEmail map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (m *memoryUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func TestJWTManager(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "owner@example.com"}
	m := NewJWTManager("test-secret-key-with-enough-length!", 15*time.Minute)

	t.Run("generate and validate", func(t *testing.T) {
		token, expires, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if time.Until(expires) > 15*time.Minute || time.Until(expires) < 14*time.Minute {
			t.Errorf("unexpected expiry %v", expires)
		}

		claims, err := m.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID != user.ID || claims.Email != user.Email {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		other := NewJWTManager("another-secret-key-with-enough-len", time.Minute)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		later := NewJWTManager("test-secret-key-with-enough-length!", 15*time.Minute)
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		if _, err := later.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(newMemoryUsers()).WithCost(bcrypt.MinCost)

	user, err := a.Register(ctx, "  Owner@Example.com ", "Jiyoung", "supersecret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "owner@example.com" {
		t.Errorf("email should be normalized, got %q", user.Email)
	}
	if user.PasswordHash == "supersecret" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name:    "duplicate email",
			run:     func() error { _, err := a.Register(ctx, "owner@example.com", "X", "supersecret"); return err },
			wantErr: ErrEmailExists,
		},
		{
			name:    "weak password",
			run:     func() error { _, err := a.Register(ctx, "new@example.com", "X", "short"); return err },
			wantErr: ErrWeakPassword,
		},
		{
			name:    "invalid email",
			run:     func() error { _, err := a.Register(ctx, "not-an-email", "X", "supersecret"); return err },
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "wrong password",
			run:     func() error { _, err := a.Authenticate(ctx, "owner@example.com", "wrongpass"); return err },
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "unknown user",
			run:     func() error { _, err := a.Authenticate(ctx, "ghost@example.com", "supersecret"); return err },
			wantErr: ErrInvalidCredentials,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("login is case-insensitive on email", func(t *testing.T) {
		got, err := a.Authenticate(ctx, "OWNER@example.com", "supersecret")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("wrong user returned")
		}
	})
}

func TestRefreshToken(t *testing.T) {
	token, hash, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken failed: %v", err)
	}
	if token == "" || strings.Contains(token, "=") {
		t.Errorf("unexpected token %q", token)
	}
	if HashRefreshToken(token) != hash {
		t.Error("hash must be deterministic")
	}
	other, _, _ := NewRefreshToken()
	if other == token {
		t.Error("tokens must be random")
	}
}

// brokenUsers fails every lookup like an unreachable database.
type brokenUsers struct{ *memoryUsers }

var errStorageDown = errors.New("connection refused")

func (brokenUsers) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, errStorageDown
}

func TestPasswordAuthenticator_StorageFailure(t *testing.T) {
	a := NewPasswordAuthenticator(brokenUsers{newMemoryUsers()}).WithCost(bcrypt.MinCost)

	_, err := a.Authenticate(context.Background(), "owner@example.com", "supersecret")
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("a storage failure must not look like bad credentials")
	}
	if !errors.Is(err, errStorageDown) {
		t.Errorf("expected the storage error to be wrapped, got %v", err)
	}
}
