package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/darby/hearth/internal/model"
	"github.com/google/uuid"
)

const invitationTTL = 7 * 24 * time.Hour

type TeamStore struct {
	db *sql.DB
}

func NewTeamStore(db *sql.DB) *TeamStore {
	return &TeamStore{db: db}
}

func scanTeam(scanner interface{ Scan(...any) error }) (*model.Team, error) {
	var t model.Team
	err := scanner.Scan(&t.ID, &t.Name, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTeamMember(scanner interface{ Scan(...any) error }) (*model.TeamMember, error) {
	var m model.TeamMember
	err := scanner.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Name, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanInvitation(scanner interface{ Scan(...any) error }) (*model.Invitation, error) {
	var inv model.Invitation
	var accepted sql.NullTime
	err := scanner.Scan(&inv.ID, &inv.TeamID, &inv.Email, &inv.Role, &inv.Token, &inv.InvitedBy, &inv.ExpiresAt, &accepted, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	if accepted.Valid {
		inv.AcceptedAt = &accepted.Time
	}
	return &inv, nil
}

const teamCols = `id, name, owner_id, created_at, updated_at`
const teamMemberCols = `id, team_id, user_id, name, role, created_at, updated_at`
const invitationCols = `id, team_id, email, role, token, invited_by, expires_at, accepted_at, created_at`

// Create makes a new team with the creating user as its owner member.
func (s *TeamStore) Create(name string, ownerUserID int64, ownerName string) (*model.Team, error) {
	result, err := s.db.Exec(`INSERT INTO teams (name, owner_id) VALUES (?, ?)`, name, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}
	teamID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := s.AddMember(teamID, ownerUserID, ownerName, model.RoleOwner); err != nil {
		return nil, err
	}
	return s.GetByID(teamID)
}

func (s *TeamStore) GetByID(id int64) (*model.Team, error) {
	row := s.db.QueryRow(`SELECT `+teamCols+` FROM teams WHERE id = ?`, id)
	t, err := scanTeam(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

func (s *TeamStore) Update(id int64, name string) (*model.Team, error) {
	_, err := s.db.Exec(`UPDATE teams SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}
	return s.GetByID(id)
}

func (s *TeamStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

// ListForUser returns all teams the user belongs to, oldest membership first.
func (s *TeamStore) ListForUser(userID int64) ([]model.Team, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.name, t.owner_id, t.created_at, t.updated_at
		 FROM teams t
		 JOIN team_members m ON m.team_id = t.id
		 WHERE m.user_id = ?
		 ORDER BY m.created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list teams for user: %w", err)
	}
	defer rows.Close()

	var teams []model.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

// --- Member methods ---

func (s *TeamStore) AddMember(teamID, userID int64, name, role string) (*model.TeamMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO team_members (team_id, user_id, name, role) VALUES (?, ?, ?, ?)`,
		teamID, userID, name, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+teamMemberCols+` FROM team_members WHERE id = ?`, id)
	return scanTeamMember(row)
}

func (s *TeamStore) GetMember(teamID, userID int64) (*model.TeamMember, error) {
	row := s.db.QueryRow(
		`SELECT `+teamMemberCols+` FROM team_members WHERE team_id = ? AND user_id = ?`,
		teamID, userID,
	)
	m, err := scanTeamMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *TeamStore) GetMemberByID(id int64) (*model.TeamMember, error) {
	row := s.db.QueryRow(`SELECT `+teamMemberCols+` FROM team_members WHERE id = ?`, id)
	m, err := scanTeamMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *TeamStore) ListMembers(teamID int64) ([]model.TeamMember, error) {
	rows, err := s.db.Query(
		`SELECT `+teamMemberCols+` FROM team_members WHERE team_id = ? ORDER BY created_at ASC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.TeamMember
	for rows.Next() {
		m, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *TeamStore) UpdateMemberRole(memberID int64, role string) (*model.TeamMember, error) {
	_, err := s.db.Exec(
		`UPDATE team_members SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		role, memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("update member role: %w", err)
	}
	return s.GetMemberByID(memberID)
}

func (s *TeamStore) RemoveMember(memberID int64) error {
	_, err := s.db.Exec(`DELETE FROM team_members WHERE id = ?`, memberID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// --- Invitation methods ---

func (s *TeamStore) CreateInvitation(teamID int64, email, role string, invitedBy int64) (*model.Invitation, error) {
	token := uuid.NewString()
	expires := time.Now().UTC().Add(invitationTTL)

	result, err := s.db.Exec(
		`INSERT INTO invitations (team_id, email, role, token, invited_by, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		teamID, email, role, token, invitedBy, expires,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id)
	return scanInvitation(row)
}

// GetInvitationByToken returns a pending, unexpired invitation or nil.
func (s *TeamStore) GetInvitationByToken(token string) (*model.Invitation, error) {
	row := s.db.QueryRow(
		`SELECT `+invitationCols+` FROM invitations
		 WHERE token = ? AND accepted_at IS NULL AND expires_at > ?`,
		token, time.Now().UTC(),
	)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

func (s *TeamStore) ListInvitationsByEmail(email string) ([]model.Invitation, error) {
	rows, err := s.db.Query(
		`SELECT `+invitationCols+` FROM invitations
		 WHERE email = ? AND accepted_at IS NULL AND expires_at > ?
		 ORDER BY created_at DESC`,
		email, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invs []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

// AcceptInvitation marks the invitation used and adds the user as a member
// with the invited role.
func (s *TeamStore) AcceptInvitation(inv *model.Invitation, userID int64, memberName string) (*model.TeamMember, error) {
	member, err := s.AddMember(inv.TeamID, userID, memberName, inv.Role)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(
		`UPDATE invitations SET accepted_at = ? WHERE id = ?`,
		time.Now().UTC(), inv.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark invitation accepted: %w", err)
	}
	return member, nil
}

// DeleteExpiredInvitations removes stale unaccepted invitations.
func (s *TeamStore) DeleteExpiredInvitations() (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at <= ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired invitations: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
