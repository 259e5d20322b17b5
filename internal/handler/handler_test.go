package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/darby/hearth/internal/auth"
	"github.com/darby/hearth/internal/currency"
	"github.com/darby/hearth/internal/database"
	"github.com/darby/hearth/internal/email"
	"github.com/darby/hearth/internal/model"
	"github.com/darby/hearth/internal/store"
)

type fixture struct {
	db       *sql.DB
	users    *store.UserStore
	teams    *store.TeamStore
	settings *store.SettingsStore
	expenses *store.ExpenseStore
	grocery  *store.GroceryStore
	events   *store.EventStore

	authH     *AuthHandler
	teamH     *TeamHandler
	expenseH  *ExpenseHandler
	groceryH  *GroceryHandler
	calendarH *CalendarEventHandler

	team   *model.Team
	owner  *model.TeamMember
	member *model.TeamMember
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		users:    store.NewUserStore(db),
		teams:    store.NewTeamStore(db),
		settings: store.NewSettingsStore(db),
		expenses: store.NewExpenseStore(db),
		grocery:  store.NewGroceryStore(db),
		events:   store.NewEventStore(db),
	}

	ratesSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": "success",
			"rates":  map[string]float64{"USD": 1, "EUR": 0.5},
		})
	}))
	t.Cleanup(ratesSrv.Close)
	rates := currency.NewService("USD", currency.WithBaseURL(ratesSrv.URL))

	logger := slog.Default()
	f.authH = NewAuthHandler(f.users, store.NewSessionStore(db), f.teams, logger)
	f.teamH = NewTeamHandler(f.teams, f.settings, f.users, email.NewClient("", "", ""), nil, logger)
	f.expenseH = NewExpenseHandler(f.expenses, f.teams, f.settings, rates, nil, logger)
	f.groceryH = NewGroceryHandler(f.grocery, f.settings, nil, logger)
	f.calendarH = NewCalendarEventHandler(f.events, f.teams, f.settings, nil, logger)

	ownerUser, err := f.users.Create("owner@example.com", "Olive", "password123")
	if err != nil {
		t.Fatalf("create owner user: %v", err)
	}
	f.team, err = f.teams.Create("House", ownerUser.ID, ownerUser.Name)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	f.owner, err = f.teams.GetMember(f.team.ID, ownerUser.ID)
	if err != nil || f.owner == nil {
		t.Fatalf("get owner member: %v", err)
	}

	memberUser, err := f.users.Create("member@example.com", "Max", "password123")
	if err != nil {
		t.Fatalf("create member user: %v", err)
	}
	f.member, err = f.teams.AddMember(f.team.ID, memberUser.ID, memberUser.Name, model.RoleMember)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}

	return f
}

// request builds an HTTP request carrying the given member's auth context.
func (f *fixture) request(method, target string, body any, as *model.TeamMember) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	ac := auth.AuthContext{
		UserID:   as.UserID,
		TeamID:   as.TeamID,
		MemberID: as.ID,
		Role:     as.Role,
	}
	return r.WithContext(auth.WithAuth(r.Context(), ac))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func sharedExpense(f *fixture, payer *model.TeamMember, amount float64, shares map[int64]float64) expenseRequest {
	req := expenseRequest{
		Description: "dinner",
		Amount:      amount,
		Currency:    "USD",
		Date:        "2026-02-01",
		PaidByID:    payer.ID,
		IsShared:    true,
	}
	for id, amt := range shares {
		req.Shares = append(req.Shares, expenseShareRequest{MemberID: id, Amount: amt})
	}
	return req
}

func TestExpenseCreateDefaultPolicyBlocksMember(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	req := sharedExpense(f, f.member, 30, map[int64]float64{f.owner.ID: 15, f.member.ID: 15})
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.member))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestExpenseCreatePolicyEveryone(t *testing.T) {
	f := newFixture(t)
	f.settings.Set(f.team.ID, store.SettingContentExpenses, "everyone")

	rec := httptest.NewRecorder()
	req := sharedExpense(f, f.member, 30, map[int64]float64{f.owner.ID: 15, f.member.ID: 15})
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.member))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	created := decodeBody[model.Expense](t, rec)
	if created.PrimaryCurrency != "USD" || created.PrimaryAmount != 30 {
		t.Errorf("primary = %v %s, want 30 USD", created.PrimaryAmount, created.PrimaryCurrency)
	}
	if created.CreatedBy != f.member.ID {
		t.Errorf("created_by = %d, want %d", created.CreatedBy, f.member.ID)
	}
}

func TestExpenseSharesMustCoverAmount(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	req := sharedExpense(f, f.owner, 30, map[int64]float64{f.owner.ID: 10, f.member.ID: 10})
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.owner))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestExpenseCategorySuggested(t *testing.T) {
	f := newFixture(t)

	req := sharedExpense(f, f.owner, 12, map[int64]float64{f.owner.ID: 6, f.member.ID: 6})
	req.Description = "netflix"

	rec := httptest.NewRecorder()
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.owner))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[model.Expense](t, rec)
	if created.Category != "Entertainment" {
		t.Errorf("category = %q, want Entertainment", created.Category)
	}
}

func TestExpenseCurrencyConverted(t *testing.T) {
	f := newFixture(t)

	req := sharedExpense(f, f.owner, 50, map[int64]float64{f.owner.ID: 25, f.member.ID: 25})
	req.Currency = "EUR"

	rec := httptest.NewRecorder()
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.owner))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[model.Expense](t, rec)
	// 50 EUR at rate 0.5 EUR per USD is 100 USD.
	if created.PrimaryAmount != 100 {
		t.Errorf("primary amount = %v, want 100", created.PrimaryAmount)
	}
	if created.PrimaryCurrency != "USD" {
		t.Errorf("primary currency = %q, want USD", created.PrimaryCurrency)
	}
}

func TestCreatorCanDeleteOwnExpense(t *testing.T) {
	f := newFixture(t)
	f.settings.Set(f.team.ID, store.SettingContentExpenses, "everyone")

	rec := httptest.NewRecorder()
	req := sharedExpense(f, f.member, 30, map[int64]float64{f.owner.ID: 15, f.member.ID: 15})
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.member))
	created := decodeBody[model.Expense](t, rec)

	// Tighten the policy back to admin-only; the creator override must
	// still allow the member to delete their own entry.
	f.settings.Set(f.team.ID, store.SettingContentExpenses, "admin")

	rec = httptest.NewRecorder()
	del := f.request("DELETE", fmt.Sprintf("/api/expenses/%d", created.ID), nil, f.member)
	del.SetPathValue("id", fmt.Sprint(created.ID))
	f.expenseH.Delete(rec, del)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}
}

func TestDebtsOptimized(t *testing.T) {
	f := newFixture(t)

	// Owner pays 30, split evenly with the member: member owes 15.
	rec := httptest.NewRecorder()
	req := sharedExpense(f, f.owner, 30, map[int64]float64{f.owner.ID: 15, f.member.ID: 15})
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.owner))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body.String())
	}

	// Member pays 10, split evenly: owner owes 5. Net: member owes 10.
	rec = httptest.NewRecorder()
	req = sharedExpense(f, f.member, 10, map[int64]float64{f.owner.ID: 5, f.member.ID: 5})
	req.Description = "coffee"
	f.settings.Set(f.team.ID, store.SettingContentExpenses, "everyone")
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.member))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	f.expenseH.Debts(rec, f.request("GET", "/api/expenses/debts", nil, f.member))
	if rec.Code != http.StatusOK {
		t.Fatalf("debts: status = %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[debtsResponse](t, rec)
	if len(resp.Raw) != 2 {
		t.Fatalf("raw debts = %d, want 2", len(resp.Raw))
	}
	if len(resp.Optimized) != 1 {
		t.Fatalf("optimized debts = %d, want 1", len(resp.Optimized))
	}
	d := resp.Optimized[0]
	if d.FromID != f.member.ID || d.ToID != f.owner.ID || d.Amount != 10 {
		t.Errorf("plan = %+v, want member owes owner 10", d)
	}
	if d.FromName != "Max" || d.ToName != "Olive" {
		t.Errorf("names = %q -> %q, want Max -> Olive", d.FromName, d.ToName)
	}
}

func TestDebtsSkipRemovedMembers(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	req := sharedExpense(f, f.owner, 30, map[int64]float64{f.owner.ID: 15, f.member.ID: 15})
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.owner))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body.String())
	}

	if err := f.teams.RemoveMember(f.member.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	rec = httptest.NewRecorder()
	f.expenseH.Debts(rec, f.request("GET", "/api/expenses/debts", nil, f.owner))
	resp := decodeBody[debtsResponse](t, rec)

	if len(resp.Raw) != 0 || len(resp.Optimized) != 0 {
		t.Errorf("debts naming a removed member should be dropped, got raw=%d optimized=%d",
			len(resp.Raw), len(resp.Optimized))
	}
}

func TestGroceryToggleOpenToMembers(t *testing.T) {
	f := newFixture(t)

	list, err := f.grocery.CreateList(f.team.ID, "Weekly")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	item, err := f.grocery.CreateItem(list.ID, "Milk", 1, "", "", f.owner.ID)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	rec := httptest.NewRecorder()
	req := f.request("POST", fmt.Sprintf("/api/grocery-items/%d/toggle", item.ID), nil, f.member)
	req.SetPathValue("id", fmt.Sprint(item.ID))
	f.groceryH.ToggleCompleted(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	got := decodeBody[model.GroceryItem](t, rec)
	if !got.Completed {
		t.Error("item should be completed after toggle")
	}
}

func TestGroceryDeleteItemBlockedForMember(t *testing.T) {
	f := newFixture(t)

	list, _ := f.grocery.CreateList(f.team.ID, "Weekly")
	item, _ := f.grocery.CreateItem(list.ID, "Milk", 1, "", "", f.owner.ID)

	rec := httptest.NewRecorder()
	req := f.request("DELETE", fmt.Sprintf("/api/grocery-items/%d", item.ID), nil, f.member)
	req.SetPathValue("id", fmt.Sprint(item.ID))
	f.groceryH.DeleteItem(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCalendarListExpandsRecurring(t *testing.T) {
	f := newFixture(t)

	_, err := f.events.Create(&model.CalendarEvent{
		TeamID: f.team.ID, Title: "Standup", Date: "2026-01-05", Time: "09:00",
		RecurrenceRule: "FREQ=WEEKLY", CreatedBy: f.owner.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	rec := httptest.NewRecorder()
	f.calendarH.List(rec, f.request("GET", "/api/events?from=2026-02-01&to=2026-02-28", nil, f.member))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	got := decodeBody[[]model.CalendarEvent](t, rec)
	if len(got) != 4 {
		t.Fatalf("occurrences = %d, want 4 Mondays in Feb 2026", len(got))
	}
	if got[0].Date != "2026-02-02" || got[3].Date != "2026-02-23" {
		t.Errorf("dates = %q .. %q, want 2026-02-02 .. 2026-02-23", got[0].Date, got[3].Date)
	}
}

func TestCalendarSingleEventExport(t *testing.T) {
	f := newFixture(t)

	ev, err := f.events.Create(&model.CalendarEvent{
		TeamID: f.team.ID, Title: "Dentist", Date: "2026-03-10", Time: "14:30",
		RecurrenceRule: "FREQ=YEARLY", CreatedBy: f.owner.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	rec := httptest.NewRecorder()
	req := f.request("GET", fmt.Sprintf("/api/events/%d/export.ics", ev.ID), nil, f.member)
	req.SetPathValue("id", fmt.Sprintf("%d", ev.ID))
	f.calendarH.ExportEventICS(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"SUMMARY:Dentist", "RRULE:FREQ=YEARLY", "BEGIN:VEVENT"} {
		if !strings.Contains(body, want) {
			t.Errorf("export missing %q", want)
		}
	}
	if got := strings.Count(body, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("events in feed = %d, want 1", got)
	}
}

func TestCalendarRejectsBadRule(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.calendarH.Create(rec, f.request("POST", "/api/events", eventRequest{
		Title: "Bad", Date: "2026-01-05", RecurrenceRule: "FREQ=SOMETIMES",
	}, f.owner))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateProfileRenamesUser(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.authH.UpdateProfile(rec, f.request("PUT", "/api/me", map[string]string{"name": "Maxine"}, f.member))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	got := decodeBody[model.User](t, rec)
	if got.Name != "Maxine" {
		t.Errorf("name = %q, want %q", got.Name, "Maxine")
	}
	stored, err := f.users.GetByID(f.member.UserID)
	if err != nil || stored == nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.Name != "Maxine" {
		t.Errorf("stored name = %q, want %q", stored.Name, "Maxine")
	}

	rec = httptest.NewRecorder()
	f.authH.UpdateProfile(rec, f.request("PUT", "/api/me", map[string]string{"name": "   "}, f.member))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank name: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTeamDeleteOwnerOnly(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.teamH.Delete(rec, f.request("DELETE", "/api/team", nil, f.member))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member delete: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = httptest.NewRecorder()
	f.teamH.Delete(rec, f.request("DELETE", "/api/team", nil, f.owner))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete: status = %d: %s", rec.Code, rec.Body.String())
	}

	team, err := f.teams.GetByID(f.team.ID)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if team != nil {
		t.Error("team still present after delete")
	}
	member, err := f.teams.GetMemberByID(f.member.ID)
	if err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if member != nil {
		t.Error("membership survived team delete")
	}
}

func TestTeamScopingHidesOtherTeams(t *testing.T) {
	f := newFixture(t)

	otherUser, _ := f.users.Create("other@example.com", "Oda", "password123")
	otherTeam, _ := f.teams.Create("Elsewhere", otherUser.ID, otherUser.Name)
	otherMember, _ := f.teams.GetMember(otherTeam.ID, otherUser.ID)

	rec := httptest.NewRecorder()
	req := sharedExpense(f, f.owner, 30, map[int64]float64{f.owner.ID: 15, f.member.ID: 15})
	f.expenseH.Create(rec, f.request("POST", "/api/expenses", req, f.owner))
	created := decodeBody[model.Expense](t, rec)

	rec = httptest.NewRecorder()
	get := f.request("GET", fmt.Sprintf("/api/expenses/%d", created.ID), nil, otherMember)
	get.SetPathValue("id", fmt.Sprint(created.ID))
	f.expenseH.Get(rec, get)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
