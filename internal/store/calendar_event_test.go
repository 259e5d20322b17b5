package store

import (
	"testing"

	"github.com/darby/hearth/internal/model"
)

func TestEventCRUD(t *testing.T) {
	db := openTestDB(t)
	events := NewEventStore(db)
	team, owner := seedTeam(t, db, "House", "a@example.com", "Ada")
	ben := seedMember(t, db, team.ID, "b@example.com", "Ben", model.RoleMember)

	created, err := events.Create(&model.CalendarEvent{
		TeamID:      team.ID,
		Title:       "Dinner",
		Description: "Pizza night",
		Date:        "2026-03-14",
		Time:        "18:30",
		AttendeeIDs: []int64{owner.ID, ben.ID},
		CreatedBy:   owner.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if created.Title != "Dinner" {
		t.Errorf("title = %q, want %q", created.Title, "Dinner")
	}
	if len(created.AttendeeIDs) != 2 {
		t.Fatalf("got %d attendees, want 2", len(created.AttendeeIDs))
	}

	created.Title = "Pizza dinner"
	created.AttendeeIDs = []int64{ben.ID}
	updated, err := events.Update(created)
	if err != nil {
		t.Fatalf("update event: %v", err)
	}
	if updated.Title != "Pizza dinner" {
		t.Errorf("title = %q, want %q", updated.Title, "Pizza dinner")
	}
	if len(updated.AttendeeIDs) != 1 || updated.AttendeeIDs[0] != ben.ID {
		t.Errorf("attendees after update = %v", updated.AttendeeIDs)
	}

	if err := events.Delete(created.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	gone, err := events.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get deleted event: %v", err)
	}
	if gone != nil {
		t.Error("event should be gone")
	}
}

func TestEventListByDateRange(t *testing.T) {
	db := openTestDB(t)
	events := NewEventStore(db)
	team, owner := seedTeam(t, db, "House", "a@example.com", "Ada")

	for _, d := range []string{"2026-03-01", "2026-03-15", "2026-04-01"} {
		_, err := events.Create(&model.CalendarEvent{
			TeamID: team.ID, Title: "ev-" + d, Date: d, Time: "10:00", CreatedBy: owner.ID,
		})
		if err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	got, err := events.ListByDateRange(team.ID, "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Date != "2026-03-01" || got[1].Date != "2026-03-15" {
		t.Errorf("events out of order: %q, %q", got[0].Date, got[1].Date)
	}
}

func TestEventListByTeamOrdersByDateTime(t *testing.T) {
	db := openTestDB(t)
	events := NewEventStore(db)
	team, owner := seedTeam(t, db, "House", "a@example.com", "Ada")

	events.Create(&model.CalendarEvent{TeamID: team.ID, Title: "late", Date: "2026-03-01", Time: "20:00", CreatedBy: owner.ID})
	events.Create(&model.CalendarEvent{TeamID: team.ID, Title: "early", Date: "2026-03-01", Time: "08:00", CreatedBy: owner.ID})

	got, err := events.ListByTeam(team.ID)
	if err != nil {
		t.Fatalf("list by team: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Title != "early" {
		t.Errorf("first event = %q, want %q", got[0].Title, "early")
	}
}

func TestEventRangeIncludesEarlierRecurring(t *testing.T) {
	db := openTestDB(t)
	events := NewEventStore(db)
	team, owner := seedTeam(t, db, "House", "a@example.com", "Ada")

	_, err := events.Create(&model.CalendarEvent{
		TeamID: team.ID, Title: "weekly", Date: "2026-01-05", Time: "09:00",
		RecurrenceRule: "FREQ=WEEKLY", CreatedBy: owner.ID,
	})
	if err != nil {
		t.Fatalf("create recurring event: %v", err)
	}
	_, err = events.Create(&model.CalendarEvent{
		TeamID: team.ID, Title: "one-off", Date: "2026-01-02", Time: "10:00", CreatedBy: owner.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	got, err := events.ListByDateRange(team.ID, "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Title != "weekly" {
		t.Errorf("got %q, want the recurring event", got[0].Title)
	}
	if got[0].RecurrenceRule != "FREQ=WEEKLY" {
		t.Errorf("recurrence rule = %q, want FREQ=WEEKLY", got[0].RecurrenceRule)
	}
}
