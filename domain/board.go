package domain

import "time"

// Board is a shared workspace owned by one user and worked on by its members.
type Board struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
}

// Role is the authorization level a membership grants on a board.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

// Membership is the (board, user, role) relation. A row existing is both the
// authorization predicate and the recipient-set predicate for board events.
type Membership struct {
	BoardID   string    `json:"boardId"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// BoardMember is a membership joined with the member's profile, as returned
// by the member-listing endpoint.
type BoardMember struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}
