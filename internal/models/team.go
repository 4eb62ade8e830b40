package models

// Role is a user's role on a shop.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleStaff:
		return true
	}
	return false
}

// CanEdit reports whether the role may change shop content and settings.
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleManager
}

// CanManage reports whether the role may invite or remove a member with
// the target role. Owners manage everyone except owners; managers only
// manage staff.
func (r Role) CanManage(target Role) bool {
	switch r {
	case RoleOwner:
		return target != RoleOwner
	case RoleManager:
		return target == RoleStaff
	}
	return false
}

// MemberStatus tracks whether an invitation has been accepted.
type MemberStatus string

const (
	MemberInvited MemberStatus = "invited"
	MemberActive  MemberStatus = "active"
)

// TeamMember links a user (or a pending email invitation) to a shop.
type TeamMember struct {
	// ID is the unique identifier for the membership (UUID format).
	ID     string `db:"id"`
	ShopID string `db:"shop_id"`

	// UserID is empty while the invitation is pending.
	UserID string `db:"user_id"`

	// Email is the invited address; it is matched on signup.
	Email string `db:"email"`

	// DisplayName is filled from the user record when the member is active.
	DisplayName string `db:"display_name"`

	Role      Role         `db:"role"`
	Status    MemberStatus `db:"status"`
	InvitedBy string       `db:"invited_by"`
	CreatedAt int64        `db:"created_at"`
}
