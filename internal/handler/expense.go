package handler

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/darby/hearth/internal/auth"
	"github.com/darby/hearth/internal/category"
	"github.com/darby/hearth/internal/currency"
	"github.com/darby/hearth/internal/model"
	"github.com/darby/hearth/internal/permission"
	"github.com/darby/hearth/internal/settle"
	"github.com/darby/hearth/internal/store"
	"github.com/darby/hearth/internal/websocket"
)

// shareSumTolerance absorbs cent-level rounding when checking that shares
// cover the full expense amount.
const shareSumTolerance = 0.01

type ExpenseHandler struct {
	expenseStore  *store.ExpenseStore
	teamStore     *store.TeamStore
	settingsStore *store.SettingsStore
	rates         *currency.Service
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewExpenseHandler(es *store.ExpenseStore, ts *store.TeamStore, ss *store.SettingsStore, rates *currency.Service, hub *websocket.Hub, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenseStore: es, teamStore: ts, settingsStore: ss, rates: rates, hub: hub, logger: logger}
}

func (h *ExpenseHandler) broadcast(teamID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(teamID, msg)
	}
}

type expenseShareRequest struct {
	MemberID int64   `json:"member_id"`
	Share    float64 `json:"share"`
	Amount   float64 `json:"amount"`
}

type expenseRequest struct {
	Description string                `json:"description"`
	Amount      float64               `json:"amount"`
	Currency    string                `json:"currency"`
	Category    string                `json:"category"`
	Date        string                `json:"date"`
	PaidByID    int64                 `json:"paid_by_id"`
	IsShared    bool                  `json:"is_shared"`
	Shares      []expenseShareRequest `json:"shares"`
}

// buildExpense validates the request against the team's membership and
// converts it into a model ready for the store, including the primary
// currency conversion.
func (h *ExpenseHandler) buildExpense(r *http.Request, ac auth.AuthContext, req *expenseRequest) (*model.Expense, string) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return nil, "description is required"
	}
	if req.Amount <= 0 {
		return nil, "amount must be positive"
	}

	primary, err := h.settingsStore.GetPrimaryCurrency(ac.TeamID)
	if err != nil {
		h.logger.Error("get primary currency", "error", err)
		primary = "USD"
	}
	if req.Currency == "" {
		req.Currency = primary
	}
	if !currency.IsValidCode(req.Currency) {
		return nil, "unsupported currency code"
	}

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, "date must be YYYY-MM-DD"
	}

	members, err := h.teamStore.ListMembers(ac.TeamID)
	if err != nil {
		return nil, "failed to load members"
	}
	byID := make(map[int64]model.TeamMember, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	if _, ok := byID[req.PaidByID]; !ok {
		return nil, "paid_by_id is not a team member"
	}

	var shares []model.ExpenseShare
	if req.IsShared {
		if len(req.Shares) == 0 {
			return nil, "shared expense needs at least one share"
		}
		var sum float64
		for _, sh := range req.Shares {
			m, ok := byID[sh.MemberID]
			if !ok {
				return nil, "share member is not a team member"
			}
			if sh.Amount < 0 {
				return nil, "share amounts cannot be negative"
			}
			sum += sh.Amount
			shares = append(shares, model.ExpenseShare{
				MemberID:   sh.MemberID,
				MemberName: m.Name,
				Share:      sh.Share,
				Amount:     sh.Amount,
			})
		}
		if math.Abs(sum-req.Amount) > shareSumTolerance {
			return nil, "shares must add up to the expense amount"
		}
	}

	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		req.Category = category.Suggest(req.Description)
	}

	rates := h.rates.Rates(r.Context())

	return &model.Expense{
		TeamID:          ac.TeamID,
		Description:     req.Description,
		Amount:          req.Amount,
		Currency:        req.Currency,
		PrimaryAmount:   currency.Convert(req.Amount, req.Currency, primary, rates),
		PrimaryCurrency: primary,
		Category:        req.Category,
		Date:            req.Date,
		PaidByID:        req.PaidByID,
		IsShared:        req.IsShared,
		Shares:          shares,
	}, ""
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if !canManage(h.settingsStore, ac, permission.Expenses, nil) {
		writeError(w, http.StatusForbidden, "not allowed to manage expenses")
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	expense, msg := h.buildExpense(r, ac, &req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	expense.CreatedBy = ac.MemberID

	created, err := h.expenseStore.Create(expense)
	if err != nil {
		h.logger.Error("create expense", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create expense")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("expense", "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenseStore.ListByTeam(auth.TeamID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	expense, err := h.expenseStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get expense")
		return
	}
	if expense == nil || expense.TeamID != auth.TeamID(r.Context()) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.expenseStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get expense")
		return
	}
	if existing == nil || existing.TeamID != ac.TeamID {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}

	if !canManage(h.settingsStore, ac, permission.Expenses, &existing.CreatedBy) {
		writeError(w, http.StatusForbidden, "not allowed to manage expenses")
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	expense, msg := h.buildExpense(r, ac, &req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	expense.ID = id
	expense.CreatedBy = existing.CreatedBy

	updated, err := h.expenseStore.Update(expense)
	if err != nil {
		h.logger.Error("update expense", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update expense")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("expense", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.expenseStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get expense")
		return
	}
	if existing == nil || existing.TeamID != ac.TeamID {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}

	if !canManage(h.settingsStore, ac, permission.Expenses, &existing.CreatedBy) {
		writeError(w, http.StatusForbidden, "not allowed to manage expenses")
		return
	}

	if err := h.expenseStore.Delete(id); err != nil {
		h.logger.Error("delete expense", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("expense", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type debtView struct {
	FromID   int64   `json:"from_id"`
	FromName string  `json:"from_name"`
	ToID     int64   `json:"to_id"`
	ToName   string  `json:"to_name"`
	Amount   float64 `json:"amount"`
}

type debtsResponse struct {
	Currency  string     `json:"currency"`
	Raw       []debtView `json:"raw"`
	Optimized []debtView `json:"optimized"`
}

// Debts returns the team's pairwise obligations in the primary currency,
// both the raw per-share view and the minimal settlement plan. Debts that
// reference members no longer on the team are dropped from both views.
func (h *ExpenseHandler) Debts(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	expenses, err := h.expenseStore.ListByTeam(ac.TeamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	primary, err := h.settingsStore.GetPrimaryCurrency(ac.TeamID)
	if err != nil {
		primary = "USD"
	}

	// Normalize each share to the primary currency using the conversion
	// captured when the expense was written, so the ledger doesn't shift
	// with every rate refresh.
	normalized := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Amount != 0 && e.PrimaryAmount != e.Amount {
			factor := e.PrimaryAmount / e.Amount
			for i := range e.Shares {
				e.Shares[i].Amount *= factor
			}
		}
		normalized = append(normalized, e)
	}

	raw := settle.ComputeRawDebts(normalized)
	optimized := settle.Optimize(raw)

	members, err := h.teamStore.ListMembers(ac.TeamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load members")
		return
	}
	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	resolve := func(debts []settle.Debt) []debtView {
		views := []debtView{}
		for _, d := range debts {
			fromName, okFrom := names[d.FromID]
			toName, okTo := names[d.ToID]
			if !okFrom || !okTo {
				continue
			}
			views = append(views, debtView{
				FromID:   d.FromID,
				FromName: fromName,
				ToID:     d.ToID,
				ToName:   toName,
				Amount:   math.Round(d.Amount*100) / 100,
			})
		}
		return views
	}

	writeJSON(w, http.StatusOK, debtsResponse{
		Currency:  primary,
		Raw:       resolve(raw),
		Optimized: resolve(optimized),
	})
}

type totalsResponse struct {
	Currency string             `json:"currency"`
	Total    float64            `json:"total"`
	Totals   map[string]float64 `json:"totals"`
}

// Totals sums expenses per category in the primary currency, optionally
// limited to an inclusive date range via the from and to query parameters.
func (h *ExpenseHandler) Totals(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	expenses, err := h.expenseStore.ListByTeam(ac.TeamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	primary, err := h.settingsStore.GetPrimaryCurrency(ac.TeamID)
	if err != nil {
		primary = "USD"
	}

	totals := make(map[string]float64)
	var total float64
	for _, e := range expenses {
		if from != "" && e.Date < from {
			continue
		}
		if to != "" && e.Date > to {
			continue
		}
		cat := e.Category
		if cat == "" {
			cat = "uncategorized"
		}
		totals[cat] += e.PrimaryAmount
		total += e.PrimaryAmount
	}
	for cat, v := range totals {
		totals[cat] = math.Round(v*100) / 100
	}

	writeJSON(w, http.StatusOK, totalsResponse{
		Currency: primary,
		Total:    math.Round(total*100) / 100,
		Totals:   totals,
	})
}
