package auth

import (
	"context"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	ac := AuthContext{UserID: 1, TeamID: 2, MemberID: 3, Role: "admin"}
	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected auth context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
}

func TestMissingContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("expected no auth context")
	}
	if TeamID(ctx) != 0 {
		t.Errorf("TeamID = %d, want 0", TeamID(ctx))
	}
	if MemberID(ctx) != 0 {
		t.Errorf("MemberID = %d, want 0", MemberID(ctx))
	}
	if IsElevated(ctx) {
		t.Error("IsElevated should be false without auth context")
	}
}

func TestIsElevated(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"owner", true},
		{"admin", true},
		{"member", false},
		{"", false},
	}
	for _, tt := range tests {
		ctx := WithAuth(context.Background(), AuthContext{Role: tt.role})
		if got := IsElevated(ctx); got != tt.want {
			t.Errorf("IsElevated(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}
