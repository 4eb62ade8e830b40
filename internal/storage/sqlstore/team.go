package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/salonmate/salonmate/internal/models"
)

const memberColumns = `tm.id, tm.shop_id, tm.user_id, tm.email, COALESCE(u.display_name, '') AS display_name,
	tm.role, tm.status, tm.invited_by, tm.created_at`

// ListTeam returns all memberships of a shop: the owner first, then by
// invitation time.
func (s *Store) ListTeam(ctx context.Context, shopID string) ([]*models.TeamMember, error) {
	members := []*models.TeamMember{}
	err := s.db.SelectContext(ctx, &members, s.q(`
		SELECT `+memberColumns+`
		FROM team_members tm
		LEFT JOIN users u ON u.id = tm.user_id
		WHERE tm.shop_id = ?
		ORDER BY CASE WHEN tm.role = ? THEN 0 ELSE 1 END, tm.created_at, tm.id
	`), shopID, models.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to list team: %w", err)
	}
	return members, nil
}

// AddTeamMember inserts a membership. The (shop, email) pair must be new.
func (s *Store) AddTeamMember(ctx context.Context, member *models.TeamMember) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = now()
	}

	var exists int
	err := s.db.GetContext(ctx, &exists,
		s.q(`SELECT COUNT(*) FROM team_members WHERE shop_id = ? AND email = ?`),
		member.ShopID, member.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%s is already on the team: %w", member.Email, models.ErrConflict)
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO team_members (id, shop_id, user_id, email, role, status, invited_by, created_at)
		VALUES (:id, :shop_id, :user_id, :email, :role, :status, :invited_by, :created_at)
	`, member)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

// GetTeamMember retrieves one membership of a shop.
func (s *Store) GetTeamMember(ctx context.Context, shopID, memberID string) (*models.TeamMember, error) {
	member := &models.TeamMember{}
	err := s.db.GetContext(ctx, member, s.q(`
		SELECT `+memberColumns+`
		FROM team_members tm
		LEFT JOIN users u ON u.id = tm.user_id
		WHERE tm.shop_id = ? AND tm.id = ?
	`), shopID, memberID)
	if err != nil {
		return nil, notFound(err, "team member", memberID)
	}
	return member, nil
}

// DeleteTeamMember removes a membership.
func (s *Store) DeleteTeamMember(ctx context.Context, shopID, memberID string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM team_members WHERE shop_id = ? AND id = ?`), shopID, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	return requireAffected(res, "team member", memberID)
}

// ActivateInvitations links pending invitations for email to userID.
func (s *Store) ActivateInvitations(ctx context.Context, email, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE team_members SET user_id = ?, status = ?
		WHERE email = ? AND status = ?
	`), userID, models.MemberActive, email, models.MemberInvited)
	if err != nil {
		return 0, fmt.Errorf("failed to activate invitations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}
