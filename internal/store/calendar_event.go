package store

import (
	"database/sql"
	"fmt"

	"github.com/darby/hearth/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	err := scanner.Scan(&e.ID, &e.TeamID, &e.Title, &e.Description, &e.Date, &e.Time, &e.RecurrenceRule, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const eventCols = `id, team_id, title, description, date, time, recurrence_rule, created_by, created_at, updated_at`

func (s *EventStore) Create(e *model.CalendarEvent) (*model.CalendarEvent, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO calendar_events (team_id, title, description, date, time, recurrence_rule, created_by) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TeamID, e.Title, e.Description, e.Date, e.Time, e.RecurrenceRule, e.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertAttendees(tx, id, e.AttendeeIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM calendar_events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.loadAttendees(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListByTeam returns a team's events ordered by date and start time.
func (s *EventStore) ListByTeam(teamID int64) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM calendar_events WHERE team_id = ? ORDER BY date ASC, time ASC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		if err := s.loadAttendees(&events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// ListByDateRange returns one-off events whose date falls within [start, end]
// inclusive, using the "YYYY-MM-DD" lexical ordering, plus every recurring
// event that starts on or before end. Callers expand the recurring ones into
// the occurrences they need.
func (s *EventStore) ListByDateRange(teamID int64, start, end string) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM calendar_events
		 WHERE team_id = ?
		   AND ((recurrence_rule = '' AND date >= ? AND date <= ?) OR (recurrence_rule != '' AND date <= ?))
		 ORDER BY date ASC, time ASC`,
		teamID, start, end, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list events by range: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		if err := s.loadAttendees(&events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *EventStore) Update(e *model.CalendarEvent) (*model.CalendarEvent, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE calendar_events SET title = ?, description = ?, date = ?, time = ?, recurrence_rule = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		e.Title, e.Description, e.Date, e.Time, e.RecurrenceRule, e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM event_attendees WHERE event_id = ?`, e.ID); err != nil {
		return nil, fmt.Errorf("clear attendees: %w", err)
	}
	if err := insertAttendees(tx, e.ID, e.AttendeeIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(e.ID)
}

func (s *EventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *EventStore) loadAttendees(e *model.CalendarEvent) error {
	rows, err := s.db.Query(
		`SELECT member_id FROM event_attendees WHERE event_id = ? ORDER BY member_id ASC`,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("load attendees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan attendee: %w", err)
		}
		e.AttendeeIDs = append(e.AttendeeIDs, id)
	}
	return rows.Err()
}

func insertAttendees(tx *sql.Tx, eventID int64, memberIDs []int64) error {
	for _, mid := range memberIDs {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO event_attendees (event_id, member_id) VALUES (?, ?)`,
			eventID, mid,
		)
		if err != nil {
			return fmt.Errorf("insert attendee: %w", err)
		}
	}
	return nil
}
