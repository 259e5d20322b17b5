package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/darby/hearth/internal/auth"
	"github.com/darby/hearth/internal/store"
)

const SessionCookieName = "hearth_session"

// RequireAuth resolves the session cookie to a user and their membership in
// the session's team, then attaches the auth context. Requests without a
// valid session, or whose user is no longer a member of the session's team,
// get 401.
func RequireAuth(sessionStore *store.SessionStore, teamStore *store.TeamStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			member, err := teamStore.GetMember(sess.TeamID, sess.UserID)
			if err != nil || member == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:   sess.UserID,
				TeamID:   sess.TeamID,
				MemberID: member.ID,
				Role:     member.Role,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireElevated admits only owners and admins.
func RequireElevated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsElevated(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
