package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/darby/hearth/internal/auth"
	"github.com/darby/hearth/internal/ics"
	"github.com/darby/hearth/internal/model"
	"github.com/darby/hearth/internal/permission"
	"github.com/darby/hearth/internal/recurrence"
	"github.com/darby/hearth/internal/store"
	"github.com/darby/hearth/internal/websocket"
)

type CalendarEventHandler struct {
	eventStore    *store.EventStore
	teamStore     *store.TeamStore
	settingsStore *store.SettingsStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewCalendarEventHandler(es *store.EventStore, ts *store.TeamStore, ss *store.SettingsStore, hub *websocket.Hub, logger *slog.Logger) *CalendarEventHandler {
	return &CalendarEventHandler{eventStore: es, teamStore: ts, settingsStore: ss, hub: hub, logger: logger}
}

func (h *CalendarEventHandler) broadcast(teamID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(teamID, msg)
	}
}

type eventRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	RecurrenceRule string  `json:"recurrence_rule"`
	AttendeeIDs    []int64 `json:"attendee_ids"`
}

func (h *CalendarEventHandler) validate(req *eventRequest, teamID int64) string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return "date must be YYYY-MM-DD"
	}
	if req.Time != "" {
		if _, err := time.Parse("15:04", req.Time); err != nil {
			return "time must be HH:MM"
		}
	}
	if req.RecurrenceRule != "" {
		if _, err := recurrence.Parse(req.RecurrenceRule); err != nil {
			return "invalid recurrence rule"
		}
	}

	if len(req.AttendeeIDs) > 0 {
		members, err := h.teamStore.ListMembers(teamID)
		if err != nil {
			return "failed to load members"
		}
		valid := make(map[int64]bool, len(members))
		for _, m := range members {
			valid[m.ID] = true
		}
		for _, id := range req.AttendeeIDs {
			if !valid[id] {
				return "attendee is not a team member"
			}
		}
	}
	return ""
}

func (h *CalendarEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if !canManage(h.settingsStore, ac, permission.Events, nil) {
		writeError(w, http.StatusForbidden, "not allowed to manage events")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := h.validate(&req, ac.TeamID); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	event, err := h.eventStore.Create(&model.CalendarEvent{
		TeamID:         ac.TeamID,
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		Time:           req.Time,
		RecurrenceRule: req.RecurrenceRule,
		AttendeeIDs:    req.AttendeeIDs,
		CreatedBy:      ac.MemberID,
	})
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("calendar_event", "created", event.ID, nil))
	writeJSON(w, http.StatusCreated, event)
}

// List returns the team's events, optionally limited to an inclusive date
// range via the from and to query parameters. Within a range, recurring
// events are expanded into one entry per occurrence.
func (h *CalendarEventHandler) List(w http.ResponseWriter, r *http.Request) {
	teamID := auth.TeamID(r.Context())

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	if from == "" && to == "" {
		events, err := h.eventStore.ListByTeam(teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list events")
			return
		}
		if events == nil {
			events = []model.CalendarEvent{}
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}

	stored, err := h.eventStore.ListByDateRange(teamID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	events := []model.CalendarEvent{}
	for _, e := range stored {
		if e.RecurrenceRule == "" {
			events = append(events, e)
			continue
		}
		rule, err := recurrence.Parse(e.RecurrenceRule)
		if err != nil {
			h.logger.Warn("stored recurrence rule no longer parses", "event_id", e.ID, "error", err)
			continue
		}
		for _, date := range recurrence.Expand(rule, e.Date, from, to) {
			occ := e
			occ.Date = date
			events = append(events, occ)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Time < events[j].Time
	})

	writeJSON(w, http.StatusOK, events)
}

func (h *CalendarEventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	event, err := h.eventStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil || event.TeamID != auth.TeamID(r.Context()) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarEventHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.eventStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil || existing.TeamID != ac.TeamID {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	if !canManage(h.settingsStore, ac, permission.Events, &existing.CreatedBy) {
		writeError(w, http.StatusForbidden, "not allowed to manage events")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := h.validate(&req, ac.TeamID); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	event, err := h.eventStore.Update(&model.CalendarEvent{
		ID:             id,
		TeamID:         ac.TeamID,
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		Time:           req.Time,
		RecurrenceRule: req.RecurrenceRule,
		AttendeeIDs:    req.AttendeeIDs,
		CreatedBy:      existing.CreatedBy,
	})
	if err != nil {
		h.logger.Error("update event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("calendar_event", "updated", event.ID, nil))
	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarEventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.eventStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil || existing.TeamID != ac.TeamID {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	if !canManage(h.settingsStore, ac, permission.Events, &existing.CreatedBy) {
		writeError(w, http.StatusForbidden, "not allowed to manage events")
		return
	}

	if err := h.eventStore.Delete(id); err != nil {
		h.logger.Error("delete event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("calendar_event", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// ExportICS downloads the team's calendar as an iCalendar file.
func (h *CalendarEventHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	events, err := h.eventStore.ListByTeam(ac.TeamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	teamName := "calendar"
	if team, err := h.teamStore.GetByID(ac.TeamID); err == nil && team != nil {
		teamName = team.Name
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "calendar.ics"))
	fmt.Fprint(w, ics.Generate(events, teamName))
}

// ExportEventICS downloads a single event as an iCalendar file.
func (h *CalendarEventHandler) ExportEventICS(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	event, err := h.eventStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil || event.TeamID != auth.TeamID(r.Context()) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "event.ics"))
	fmt.Fprint(w, ics.Generate([]model.CalendarEvent{*event}, event.Title))
}
