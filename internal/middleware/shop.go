package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salonmate/salonmate/internal/models"
)

const (
	// ShopIDKey is the context key of the shop addressed by the route.
	ShopIDKey contextKey = "shop_id"
	// RoleKey is the context key of the caller's role on that shop.
	RoleKey contextKey = "role"
)

// RoleResolver looks up a user's active role on a shop.
type RoleResolver interface {
	GetMemberRole(ctx context.Context, shopID, userID string) (models.Role, error)
}

// GetShopID returns the shop resolved by ShopAccess.
func GetShopID(ctx context.Context) string {
	shopID, _ := ctx.Value(ShopIDKey).(string)
	return shopID
}

// GetRole returns the caller's role resolved by ShopAccess.
func GetRole(ctx context.Context) models.Role {
	role, _ := ctx.Value(RoleKey).(models.Role)
	return role
}

// WithShop returns a context carrying the shop and the caller's role on it.
func WithShop(ctx context.Context, shopID string, role models.Role) context.Context {
	ctx = context.WithValue(ctx, ShopIDKey, shopID)
	return context.WithValue(ctx, RoleKey, role)
}

// ShopAccess resolves the caller's role on the {param} shop of the route.
// Callers without a membership get 404 so that shop IDs of other tenants are
// not disclosed. Must run after RequireAuth.
func ShopAccess(resolver RoleResolver, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shopID := chi.URLParam(r, param)
			userID := GetUserID(r.Context())

			role, err := resolver.GetMemberRole(r.Context(), shopID, userID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					writeError(w, http.StatusNotFound, "shop not found")
					return
				}
				slog.Error("Failed to resolve shop role", "shop_id", shopID, "user_id", userID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithShop(r.Context(), shopID, role)))
		})
	}
}
