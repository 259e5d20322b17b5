package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/darby/hearth/internal/auth"
	"github.com/darby/hearth/internal/model"
	"github.com/darby/hearth/internal/permission"
	"github.com/darby/hearth/internal/store"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// canManage evaluates the team's content policy for the authenticated member.
// A settings read failure falls back to empty settings, which the predicate
// treats as admin-only.
func canManage(settingsStore *store.SettingsStore, ac auth.AuthContext, ct permission.ContentType, creatorID *int64) bool {
	settings, err := settingsStore.GetContentSettings(ac.TeamID)
	if err != nil {
		settings = model.ContentSettings{}
	}
	member := model.TeamMember{ID: ac.MemberID, TeamID: ac.TeamID, Role: ac.Role}
	return permission.CanManageContent(settings, member, ct, creatorID)
}
