package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/darby/hearth/internal/auth"
	"github.com/darby/hearth/internal/middleware"
	"github.com/darby/hearth/internal/model"
	"github.com/darby/hearth/internal/store"
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	teamStore    *store.TeamStore
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, ts *store.TeamStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, sessionStore: ss, teamStore: ts, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	TeamName string `json:"team_name"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.TeamName = strings.TrimSpace(req.TeamName)

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.TeamName == "" {
		req.TeamName = req.Name + "'s household"
	}

	if existing, err := h.userStore.GetByEmail(req.Email); err == nil && existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	user, err := h.userStore.Create(req.Email, req.Name, req.Password)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	team, err := h.teamStore.Create(req.TeamName, user.ID, user.Name)
	if err != nil {
		h.logger.Error("create team", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create team")
		return
	}

	sess, err := h.sessionStore.Create(user.ID, team.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	setSessionCookie(w, sess)

	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "team": team})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if user == nil || !h.userStore.VerifyPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	teams, err := h.teamStore.ListForUser(user.ID)
	if err != nil || len(teams) == 0 {
		writeError(w, http.StatusForbidden, "no team membership")
		return
	}

	sess, err := h.sessionStore.Create(user.ID, teams[0].ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	setSessionCookie(w, sess)

	writeJSON(w, http.StatusOK, map[string]any{"user": user, "team": teams[0]})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessionStore.Delete(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user, their active team, and their membership.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	team, err := h.teamStore.GetByID(ac.TeamID)
	if err != nil || team == nil {
		writeError(w, http.StatusInternalServerError, "failed to load team")
		return
	}
	member, err := h.teamStore.GetMemberByID(ac.MemberID)
	if err != nil || member == nil {
		writeError(w, http.StatusInternalServerError, "failed to load membership")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user, "team": team, "member": member})
}

// UpdateProfile changes the authenticated user's display name. Team member
// names are snapshots taken at join time and are left as they are.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.userStore.UpdateName(ac.UserID, req.Name)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListTeams returns every team the authenticated user belongs to.
func (h *AuthHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	teams, err := h.teamStore.ListForUser(ac.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list teams")
		return
	}
	if teams == nil {
		teams = []model.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

type switchTeamRequest struct {
	TeamID int64 `json:"team_id"`
}

// SwitchTeam repoints the current session at another team the user belongs to.
func (h *AuthHandler) SwitchTeam(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req switchTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	member, err := h.teamStore.GetMember(req.TeamID, ac.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check membership")
		return
	}
	if member == nil {
		writeError(w, http.StatusForbidden, "not a member of that team")
		return
	}

	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	sess, err := h.sessionStore.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.sessionStore.SwitchTeam(sess.ID, req.TeamID); err != nil {
		h.logger.Error("switch team", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to switch team")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"team_id": req.TeamID})
}

func setSessionCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
