package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/darby/hearth/internal/auth"
	"github.com/darby/hearth/internal/currency"
	"github.com/darby/hearth/internal/email"
	"github.com/darby/hearth/internal/model"
	"github.com/darby/hearth/internal/permission"
	"github.com/darby/hearth/internal/store"
	"github.com/darby/hearth/internal/websocket"
)

type TeamHandler struct {
	teamStore     *store.TeamStore
	settingsStore *store.SettingsStore
	userStore     *store.UserStore
	emailClient   *email.Client
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewTeamHandler(ts *store.TeamStore, ss *store.SettingsStore, us *store.UserStore, ec *email.Client, hub *websocket.Hub, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{teamStore: ts, settingsStore: ss, userStore: us, emailClient: ec, hub: hub, logger: logger}
}

func (h *TeamHandler) broadcast(teamID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(teamID, msg)
	}
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	team, err := h.teamStore.GetByID(auth.TeamID(r.Context()))
	if err != nil || team == nil {
		writeError(w, http.StatusInternalServerError, "failed to load team")
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	team, err := h.teamStore.Update(ac.TeamID, req.Name)
	if err != nil {
		h.logger.Error("update team", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update team")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("team", "updated", team.ID, nil))
	writeJSON(w, http.StatusOK, team)
}

// Delete removes the team and everything under it. Only the owner may do
// this; members, expenses, lists, events and sessions cascade away with the
// team row.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if ac.Role != model.RoleOwner {
		writeError(w, http.StatusForbidden, "only the owner can delete the team")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("team", "deleted", ac.TeamID, nil))
	if err := h.teamStore.Delete(ac.TeamID); err != nil {
		h.logger.Error("delete team", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.teamStore.ListMembers(auth.TeamID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.TeamMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateMemberRole promotes or demotes a member between admin and member.
// The owner role is fixed: it can be neither granted nor revoked here.
func (h *TeamHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	existing, err := h.teamStore.GetMemberByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if existing == nil || existing.TeamID != ac.TeamID {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if existing.Role == model.RoleOwner {
		writeError(w, http.StatusBadRequest, "cannot change the owner's role")
		return
	}

	member, err := h.teamStore.UpdateMemberRole(id, req.Role)
	if err != nil {
		h.logger.Error("update member role", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("team_member", "updated", member.ID, nil))
	writeJSON(w, http.StatusOK, member)
}

// RemoveMember removes a member from the team. Admins may remove anyone but
// the owner; a plain member may only remove themselves (leave).
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.teamStore.GetMemberByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if existing == nil || existing.TeamID != ac.TeamID {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if existing.Role == model.RoleOwner {
		writeError(w, http.StatusBadRequest, "cannot remove the team owner")
		return
	}
	if existing.ID != ac.MemberID && !auth.IsElevated(r.Context()) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.teamStore.RemoveMember(id); err != nil {
		h.logger.Error("remove member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("team_member", "removed", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Invite creates an invitation and, when email is configured, sends the
// invite link. The invitation works either way; the response carries it.
func (h *TeamHandler) Invite(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleMember
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	if user, err := h.userStore.GetByEmail(req.Email); err == nil && user != nil {
		if member, err := h.teamStore.GetMember(ac.TeamID, user.ID); err == nil && member != nil {
			writeError(w, http.StatusConflict, "already a member of this team")
			return
		}
	}

	inv, err := h.teamStore.CreateInvitation(ac.TeamID, req.Email, req.Role, ac.MemberID)
	if err != nil {
		h.logger.Error("create invitation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invitation")
		return
	}

	if h.emailClient != nil && h.emailClient.Configured() {
		team, _ := h.teamStore.GetByID(ac.TeamID)
		inviter, _ := h.teamStore.GetMemberByID(ac.MemberID)
		teamName, inviterName := "your team", "A teammate"
		if team != nil {
			teamName = team.Name
		}
		if inviter != nil {
			inviterName = inviter.Name
		}
		if err := h.emailClient.SendInvite(req.Email, inv.Token, teamName, inviterName); err != nil {
			h.logger.Error("send invite email", "error", err, "email", req.Email)
		}
	}

	writeJSON(w, http.StatusCreated, inv)
}

// ListMyInvitations returns pending invitations addressed to the
// authenticated user's email.
func (h *TeamHandler) ListMyInvitations(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	invs, err := h.teamStore.ListInvitationsByEmail(user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invitations")
		return
	}
	if invs == nil {
		invs = []model.Invitation{}
	}
	writeJSON(w, http.StatusOK, invs)
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

// AcceptInvitation joins the authenticated user to the inviting team. The
// invitation must be pending, unexpired, and addressed to the user's email.
func (h *TeamHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req acceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	inv, err := h.teamStore.GetInvitationByToken(req.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up invitation")
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "invitation not found or expired")
		return
	}

	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if !strings.EqualFold(user.Email, inv.Email) {
		writeError(w, http.StatusForbidden, "invitation is for a different email")
		return
	}
	if member, err := h.teamStore.GetMember(inv.TeamID, user.ID); err == nil && member != nil {
		writeError(w, http.StatusConflict, "already a member of this team")
		return
	}

	member, err := h.teamStore.AcceptInvitation(inv, user.ID, user.Name)
	if err != nil {
		h.logger.Error("accept invitation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to accept invitation")
		return
	}

	h.broadcast(inv.TeamID, websocket.NewMessage("team_member", "created", member.ID, nil))
	writeJSON(w, http.StatusOK, member)
}

type settingsResponse struct {
	ContentExpenses string `json:"content_expenses"`
	ContentGrocery  string `json:"content_grocery"`
	ContentEvents   string `json:"content_events"`
	PrimaryCurrency string `json:"primary_currency"`
}

func (h *TeamHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	teamID := auth.TeamID(r.Context())

	content, err := h.settingsStore.GetContentSettings(teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	primary, err := h.settingsStore.GetPrimaryCurrency(teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		ContentExpenses: content.Expenses,
		ContentGrocery:  content.Grocery,
		ContentEvents:   content.Events,
		PrimaryCurrency: primary,
	})
}

type updateSettingsRequest struct {
	ContentExpenses *string `json:"content_expenses"`
	ContentGrocery  *string `json:"content_grocery"`
	ContentEvents   *string `json:"content_events"`
	PrimaryCurrency *string `json:"primary_currency"`
}

// UpdateSettings applies any subset of team settings. Absent fields are left
// untouched.
func (h *TeamHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	policies := map[string]*string{
		store.SettingContentExpenses: req.ContentExpenses,
		store.SettingContentGrocery:  req.ContentGrocery,
		store.SettingContentEvents:   req.ContentEvents,
	}
	for key, val := range policies {
		if val == nil {
			continue
		}
		if *val != permission.PolicyAdmin && *val != permission.PolicyEveryone {
			writeError(w, http.StatusBadRequest, "policy must be admin or everyone")
			return
		}
		if err := h.settingsStore.Set(ac.TeamID, key, *val); err != nil {
			h.logger.Error("set setting", "error", err, "key", key)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	if req.PrimaryCurrency != nil {
		if !currency.IsValidCode(*req.PrimaryCurrency) {
			writeError(w, http.StatusBadRequest, "unsupported currency code")
			return
		}
		if err := h.settingsStore.Set(ac.TeamID, store.SettingPrimaryCurrency, *req.PrimaryCurrency); err != nil {
			h.logger.Error("set setting", "error", err, "key", store.SettingPrimaryCurrency)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("settings", "updated", ac.TeamID, nil))
	h.GetSettings(w, r)
}

// ListCurrencies returns the supported currency set.
func (h *TeamHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	out := make([]currency.Currency, 0, len(currency.Currencies))
	for _, c := range currency.Currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	writeJSON(w, http.StatusOK, out)
}
