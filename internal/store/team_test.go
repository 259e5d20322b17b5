package store

import (
	"testing"

	"github.com/darby/hearth/internal/model"
)

func TestCreateTeamMakesOwnerMember(t *testing.T) {
	db := openTestDB(t)
	team, owner := seedTeam(t, db, "The Shire", "frodo@example.com", "Frodo")

	if team.Name != "The Shire" {
		t.Errorf("team name = %q, want %q", team.Name, "The Shire")
	}
	if owner.Role != model.RoleOwner {
		t.Errorf("owner role = %q, want %q", owner.Role, model.RoleOwner)
	}
	if owner.TeamID != team.ID {
		t.Errorf("owner team = %d, want %d", owner.TeamID, team.ID)
	}
}

func TestListMembersOrder(t *testing.T) {
	db := openTestDB(t)
	teams := NewTeamStore(db)
	team, _ := seedTeam(t, db, "House", "a@example.com", "Ada")
	seedMember(t, db, team.ID, "b@example.com", "Ben", model.RoleAdmin)
	seedMember(t, db, team.ID, "c@example.com", "Cam", model.RoleMember)

	members, err := teams.ListMembers(team.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("got %d members, want 3", len(members))
	}
	names := []string{"Ada", "Ben", "Cam"}
	for i, want := range names {
		if members[i].Name != want {
			t.Errorf("members[%d].Name = %q, want %q", i, members[i].Name, want)
		}
	}
}

func TestUpdateMemberRole(t *testing.T) {
	db := openTestDB(t)
	teams := NewTeamStore(db)
	team, _ := seedTeam(t, db, "House", "a@example.com", "Ada")
	m := seedMember(t, db, team.ID, "b@example.com", "Ben", model.RoleMember)

	updated, err := teams.UpdateMemberRole(m.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Role != model.RoleAdmin {
		t.Errorf("role = %q, want %q", updated.Role, model.RoleAdmin)
	}
}

func TestRemoveMember(t *testing.T) {
	db := openTestDB(t)
	teams := NewTeamStore(db)
	team, _ := seedTeam(t, db, "House", "a@example.com", "Ada")
	m := seedMember(t, db, team.ID, "b@example.com", "Ben", model.RoleMember)

	if err := teams.RemoveMember(m.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	got, err := teams.GetMemberByID(m.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got != nil {
		t.Error("member should be gone")
	}
}

func TestListForUser(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	teams := NewTeamStore(db)

	u, _ := users.Create("x@example.com", "Xe", "hunter2-long-enough")
	t1, _ := teams.Create("First", u.ID, "Xe")
	t2, _ := teams.Create("Second", u.ID, "Xe")

	list, err := teams.ListForUser(u.ID)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d teams, want 2", len(list))
	}
	if list[0].ID != t1.ID || list[1].ID != t2.ID {
		t.Errorf("teams out of order: %v then %v", list[0].Name, list[1].Name)
	}
}

func TestInvitationLifecycle(t *testing.T) {
	db := openTestDB(t)
	teams := NewTeamStore(db)
	users := NewUserStore(db)
	team, owner := seedTeam(t, db, "House", "a@example.com", "Ada")

	inv, err := teams.CreateInvitation(team.ID, "new@example.com", model.RoleAdmin, owner.UserID)
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	if inv.Token == "" {
		t.Fatal("invitation token missing")
	}

	byToken, err := teams.GetInvitationByToken(inv.Token)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if byToken == nil || byToken.Email != "new@example.com" {
		t.Fatalf("invitation lookup = %+v", byToken)
	}

	byEmail, err := teams.ListInvitationsByEmail("new@example.com")
	if err != nil {
		t.Fatalf("list invitations: %v", err)
	}
	if len(byEmail) != 1 {
		t.Fatalf("got %d invitations, want 1", len(byEmail))
	}

	u, _ := users.Create("new@example.com", "Newt", "hunter2-long-enough")
	member, err := teams.AcceptInvitation(byToken, u.ID, "Newt")
	if err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	if member.Role != model.RoleAdmin {
		t.Errorf("member role = %q, want %q", member.Role, model.RoleAdmin)
	}

	// Accepted invitations no longer resolve by token.
	gone, err := teams.GetInvitationByToken(inv.Token)
	if err != nil {
		t.Fatalf("get accepted invitation: %v", err)
	}
	if gone != nil {
		t.Error("accepted invitation should not resolve")
	}
}

func TestDeleteExpiredInvitations(t *testing.T) {
	db := openTestDB(t)
	teams := NewTeamStore(db)
	team, owner := seedTeam(t, db, "House", "a@example.com", "Ada")

	inv, err := teams.CreateInvitation(team.ID, "old@example.com", model.RoleMember, owner.UserID)
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	if _, err := db.Exec(`UPDATE invitations SET expires_at = datetime('now', '-1 day') WHERE id = ?`, inv.ID); err != nil {
		t.Fatalf("backdate invitation: %v", err)
	}

	count, err := teams.DeleteExpiredInvitations()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if count != 1 {
		t.Errorf("deleted %d invitations, want 1", count)
	}
}
