package store

import (
	"database/sql"
	"testing"

	"github.com/darby/hearth/internal/database"
	"github.com/darby/hearth/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedTeam creates a user and a team owned by them, returning the team and
// the owner's membership.
func seedTeam(t *testing.T, db *sql.DB, teamName, ownerEmail, ownerName string) (*model.Team, *model.TeamMember) {
	t.Helper()
	users := NewUserStore(db)
	teams := NewTeamStore(db)

	u, err := users.Create(ownerEmail, ownerName, "hunter2-long-enough")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	team, err := teams.Create(teamName, u.ID, ownerName)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	owner, err := teams.GetMember(team.ID, u.ID)
	if err != nil || owner == nil {
		t.Fatalf("get owner member: %v", err)
	}
	return team, owner
}

// seedMember adds an extra user to a team with the given role.
func seedMember(t *testing.T, db *sql.DB, teamID int64, email, name, role string) *model.TeamMember {
	t.Helper()
	users := NewUserStore(db)
	teams := NewTeamStore(db)

	u, err := users.Create(email, name, "hunter2-long-enough")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	m, err := teams.AddMember(teamID, u.ID, name, role)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	return m
}
