package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/salonmate/salonmate/internal/auth"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
)

// TeamService manages shop memberships.
type TeamService struct {
	store storage.Store
}

// NewTeamService creates a new TeamService with the given storage backend.
func NewTeamService(store storage.Store) *TeamService {
	return &TeamService{store: store}
}

// List returns the shop's members, owner first.
func (s *TeamService) List(ctx context.Context, shopID string) ([]*models.TeamMember, error) {
	return s.store.ListTeam(ctx, shopID)
}

// Invite adds a member by email. Existing users join immediately; anyone
// else stays invited until they sign up with that email.
func (s *TeamService) Invite(ctx context.Context, shopID, actorID string, actorRole models.Role, email string, role models.Role) (*models.TeamMember, error) {
	slog.Info("InviteMember request received", "shop_id", shopID, "role", role)

	normalized, err := auth.NormalizeEmail(email)
	if err != nil {
		return nil, models.NewValidationError("email", err.Error())
	}
	if role != models.RoleManager && role != models.RoleStaff {
		return nil, models.NewValidationError("role", "role must be manager or staff")
	}
	if !actorRole.CanManage(role) {
		slog.Warn("InviteMember forbidden", "shop_id", shopID, "actor_role", actorRole, "role", role)
		return nil, fmt.Errorf("%s cannot invite %s: %w", actorRole, role, models.ErrForbidden)
	}

	member := &models.TeamMember{
		ShopID:    shopID,
		Email:     normalized,
		Role:      role,
		Status:    models.MemberInvited,
		InvitedBy: actorID,
	}

	user, err := s.store.GetUserByEmail(ctx, normalized)
	switch {
	case err == nil:
		member.UserID = user.ID
		member.DisplayName = user.DisplayName
		member.Status = models.MemberActive
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	if err := s.store.AddTeamMember(ctx, member); err != nil {
		logFailure("InviteMember failed", err, "shop_id", shopID)
		return nil, err
	}

	slog.Info("Team member added", "shop_id", shopID, "member_id", member.ID, "status", member.Status)
	return member, nil
}

// Remove deletes a membership. The owner cannot be removed; managers may only
// remove staff.
func (s *TeamService) Remove(ctx context.Context, shopID string, actorRole models.Role, memberID string) error {
	member, err := s.store.GetTeamMember(ctx, shopID, memberID)
	if err != nil {
		return err
	}
	if member.Role == models.RoleOwner {
		return fmt.Errorf("the shop owner cannot be removed: %w", models.ErrForbidden)
	}
	if !actorRole.CanManage(member.Role) {
		return fmt.Errorf("%s cannot remove %s: %w", actorRole, member.Role, models.ErrForbidden)
	}

	if err := s.store.DeleteTeamMember(ctx, shopID, memberID); err != nil {
		logFailure("RemoveMember failed", err, "shop_id", shopID, "member_id", memberID)
		return err
	}
	slog.Info("Team member removed", "shop_id", shopID, "member_id", memberID)
	return nil
}
