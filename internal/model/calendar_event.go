package model

import "time"

type CalendarEvent struct {
	ID          int64     `json:"id"`
	TeamID      int64     `json:"team_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	// RecurrenceRule is an RRULE string, empty for one-off events.
	RecurrenceRule string  `json:"recurrence_rule"`
	AttendeeIDs    []int64 `json:"attendee_ids"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
