package model

import "time"

// Roles a member can hold within a team.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TeamMember struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Invitation struct {
	ID        int64      `json:"id"`
	TeamID    int64      `json:"team_id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Token     string     `json:"-"`
	InvitedBy int64      `json:"invited_by"`
	ExpiresAt time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// ContentSettings holds the per-team content-management policies, one per
// content area. Empty values mean no policy has been set.
type ContentSettings struct {
	Expenses string `json:"expenses"`
	Grocery  string `json:"grocery"`
	Events   string `json:"events"`
}
