package permission

import "github.com/darby/hearth/internal/model"

// ContentType identifies a managed content area. The predicate is only
// defined for the three areas below; anything else falls through to the
// default policy.
type ContentType string

const (
	Expenses ContentType = "expenses"
	Grocery  ContentType = "grocery"
	Events   ContentType = "events"
)

// Policies that can be assigned to a content area.
const (
	PolicyAdmin    = "admin"
	PolicyEveryone = "everyone"
)

// CanManageContent reports whether member may create, edit, or delete
// content of the given type. Owners always may. Members always may manage
// content they created themselves, regardless of team policy. Otherwise the
// team's policy for the content area decides: "everyone" admits any member,
// "admin" admits admins only, and a missing or unrecognized policy defaults
// to admin-only.
func CanManageContent(settings model.ContentSettings, member model.TeamMember, ct ContentType, creatorID *int64) bool {
	if member.Role == model.RoleOwner {
		return true
	}

	if creatorID != nil && *creatorID == member.ID {
		return true
	}

	var policy string
	switch ct {
	case Expenses:
		policy = settings.Expenses
	case Grocery:
		policy = settings.Grocery
	case Events:
		policy = settings.Events
	}

	if policy == PolicyEveryone {
		return true
	}
	return member.Role == model.RoleAdmin
}
