package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
)

const (
	MaxShopNameLength = 100
	MaxStyleTags      = 20
	MaxStyleTagLength = 30
)

// ShopInput holds the fields of a new shop.
type ShopInput struct {
	Name     string
	Category models.Category
	Address  string
	Phone    string
	Timezone string
}

// ShopPatch holds the fields to change. Nil fields are left untouched.
type ShopPatch struct {
	Name     *string
	Category *models.Category
	Address  *string
	Phone    *string
	Timezone *string
}

// ShopService manages shops and their style tags.
type ShopService struct {
	store storage.Store
	now   func() time.Time
}

// NewShopService creates a new ShopService with the given storage backend.
func NewShopService(store storage.Store) *ShopService {
	return &ShopService{store: store, now: time.Now}
}

// List returns the shops the user can access, with the user's role.
func (s *ShopService) List(ctx context.Context, userID string) ([]*models.ShopWithRole, error) {
	shops, err := s.store.ListShopsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListShops failed", "user_id", userID, "error", err)
		return nil, err
	}
	return shops, nil
}

// Create creates a shop owned by the user. The shop starts on the free plan.
func (s *ShopService) Create(ctx context.Context, userID string, in ShopInput) (*models.ShopWithRole, error) {
	slog.Info("CreateShop request received", "user_id", userID, "name", in.Name)

	shop := &models.Shop{
		OwnerID:   userID,
		Name:      strings.TrimSpace(in.Name),
		Category:  in.Category,
		Address:   strings.TrimSpace(in.Address),
		Phone:     strings.TrimSpace(in.Phone),
		Timezone:  strings.TrimSpace(in.Timezone),
		StyleTags: []string{},
		CreatedAt: s.now().Unix(),
	}
	if shop.Timezone == "" {
		shop.Timezone = models.DefaultTimezone
	}
	if err := validateShop(shop); err != nil {
		slog.Warn("CreateShop rejected", "user_id", userID, "error", err)
		return nil, err
	}

	if err := s.store.CreateShop(ctx, shop); err != nil {
		slog.Error("CreateShop failed", "user_id", userID, "error", err)
		return nil, err
	}

	slog.Info("Shop created", "shop_id", shop.ID, "user_id", userID)
	return &models.ShopWithRole{Shop: *shop, Role: models.RoleOwner}, nil
}

// Get returns a shop with its style tags.
func (s *ShopService) Get(ctx context.Context, shopID string) (*models.Shop, error) {
	return s.store.GetShop(ctx, shopID)
}

// Update applies a patch. Owners and managers may edit a shop.
func (s *ShopService) Update(ctx context.Context, shopID string, role models.Role, patch ShopPatch) (*models.Shop, error) {
	slog.Info("UpdateShop request received", "shop_id", shopID)

	if !role.CanEdit() {
		return nil, models.ErrForbidden
	}

	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		shop.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		shop.Category = *patch.Category
	}
	if patch.Address != nil {
		shop.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Phone != nil {
		shop.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Timezone != nil {
		shop.Timezone = strings.TrimSpace(*patch.Timezone)
	}
	if err := validateShop(shop); err != nil {
		slog.Warn("UpdateShop rejected", "shop_id", shopID, "error", err)
		return nil, err
	}

	if err := s.store.UpdateShop(ctx, shop); err != nil {
		slog.Error("UpdateShop failed", "shop_id", shopID, "error", err)
		return nil, err
	}

	slog.Info("Shop updated", "shop_id", shopID)
	return shop, nil
}

// Delete removes a shop and everything it owns. Only the owner may do this.
func (s *ShopService) Delete(ctx context.Context, shopID string, role models.Role) error {
	if role != models.RoleOwner {
		return models.ErrForbidden
	}
	if err := s.store.DeleteShop(ctx, shopID); err != nil {
		logFailure("DeleteShop failed", err, "shop_id", shopID)
		return err
	}
	slog.Info("Shop deleted", "shop_id", shopID)
	return nil
}

// StyleTags returns the shop's style tags.
func (s *ShopService) StyleTags(ctx context.Context, shopID string) ([]string, error) {
	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return shop.StyleTags, nil
}

// SetStyleTags replaces the shop's style tags after trimming them and
// dropping case-insensitive duplicates.
func (s *ShopService) SetStyleTags(ctx context.Context, shopID string, role models.Role, tags []string) ([]string, error) {
	if !role.CanEdit() {
		return nil, models.ErrForbidden
	}

	cleaned, err := NormalizeStyleTags(tags)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetStyleTags(ctx, shopID, cleaned); err != nil {
		slog.Error("SetStyleTags failed", "shop_id", shopID, "error", err)
		return nil, err
	}

	slog.Info("Style tags updated", "shop_id", shopID, "count", len(cleaned))
	return cleaned, nil
}

// NormalizeStyleTags trims tags, drops empty entries and case-insensitive
// duplicates, and enforces the count and length limits.
func NormalizeStyleTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > MaxStyleTagLength {
			return nil, models.NewValidationError("tags", "each tag must be at most 30 characters")
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	if len(out) > MaxStyleTags {
		return nil, models.NewValidationError("tags", "at most 20 tags are allowed")
	}
	return out, nil
}

func validateShop(shop *models.Shop) error {
	verr := &models.ValidationError{}
	switch n := utf8.RuneCountInString(shop.Name); {
	case n == 0:
		verr.Add("name", "name is required")
	case n > MaxShopNameLength:
		verr.Add("name", "name must be at most 100 characters")
	}
	if !shop.Category.Valid() {
		verr.Add("category", "category must be one of hair, nail, skin, other")
	}
	if _, err := time.LoadLocation(shop.Timezone); err != nil || shop.Timezone == "" {
		verr.Add("timezone", "timezone must be a valid IANA zone name")
	}
	return verr.OrNil()
}
