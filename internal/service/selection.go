package service

import "github.com/salonmate/salonmate/internal/models"

// ResolveSelectedShop picks the shop the client should show.
//
// Algorithm:
//   - requested wins if the user can access it
//   - otherwise the persisted selection, if still accessible
//   - otherwise the first available shop (available is oldest first)
//   - otherwise "" (the user has no shop yet)
func ResolveSelectedShop(requested, persisted string, available []*models.ShopWithRole) string {
	has := func(id string) bool {
		if id == "" {
			return false
		}
		for _, s := range available {
			if s.ID == id {
				return true
			}
		}
		return false
	}

	switch {
	case has(requested):
		return requested
	case has(persisted):
		return persisted
	case len(available) > 0:
		return available[0].ID
	}
	return ""
}
