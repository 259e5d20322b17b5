package auth

import "context"

type contextKey struct{}

// AuthContext identifies the authenticated user and their membership in the
// currently selected team. It is attached to request contexts by the auth
// middleware; core logic receives its fields as explicit arguments.
type AuthContext struct {
	UserID   int64
	TeamID   int64
	MemberID int64
	Role     string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func TeamID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.TeamID
}

func MemberID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.MemberID
}

// IsElevated reports whether the authenticated member is an owner or admin.
func IsElevated(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == "owner" || ac.Role == "admin"
}
