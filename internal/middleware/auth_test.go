package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darby/hearth/internal/auth"
	"github.com/darby/hearth/internal/database"
	"github.com/darby/hearth/internal/model"
	"github.com/darby/hearth/internal/store"
)

func TestRequireAuth(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := store.NewUserStore(db)
	teams := store.NewTeamStore(db)
	sessions := store.NewSessionStore(db)

	user, err := users.Create("ada@example.com", "Ada", "password123")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	team, err := teams.Create("House", user.ID, user.Name)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	sess, err := sessions.Create(user.ID, team.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotCtx auth.AuthContext
	var called bool
	handler := RequireAuth(sessions, teams)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx, _ = auth.FromContext(r.Context())
		called = true
	}))

	// Valid session cookie
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/team", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("handler not called for valid session")
	}
	if gotCtx.UserID != user.ID || gotCtx.TeamID != team.ID {
		t.Errorf("auth context = %+v, want user %d team %d", gotCtx, user.ID, team.ID)
	}
	if gotCtx.Role != model.RoleOwner {
		t.Errorf("role = %q, want owner", gotCtx.Role)
	}

	// No cookie
	called = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/team", nil))
	if called || rec.Code != http.StatusUnauthorized {
		t.Errorf("no cookie: called=%v status=%d, want 401", called, rec.Code)
	}

	// Bogus token
	called = false
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/team", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-token"})
	handler.ServeHTTP(rec, req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus token: called=%v status=%d, want 401", called, rec.Code)
	}

	// Session pointing at a team the user no longer belongs to
	member, err := teams.GetMember(team.ID, user.ID)
	if err != nil || member == nil {
		t.Fatalf("get member: %v", err)
	}
	if err := teams.RemoveMember(member.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	called = false
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/team", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	handler.ServeHTTP(rec, req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Errorf("removed member: called=%v status=%d, want 401", called, rec.Code)
	}
}

func TestRequireElevated(t *testing.T) {
	handler := RequireElevated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tc := range []struct {
		role string
		want int
	}{
		{"owner", http.StatusOK},
		{"admin", http.StatusOK},
		{"member", http.StatusForbidden},
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("PUT", "/api/team", nil)
		ctx := auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1, TeamID: 1, MemberID: 1, Role: tc.role})
		handler.ServeHTTP(rec, req.WithContext(ctx))
		if rec.Code != tc.want {
			t.Errorf("role %s: status = %d, want %d", tc.role, rec.Code, tc.want)
		}
	}
}
