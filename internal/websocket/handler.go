package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/darby/hearth/internal/auth"
)

// Handle returns an HTTP handler that upgrades connections to WebSocket and
// runs them as Hub clients scoped to the authenticated user's active team.
// It must be mounted behind the auth middleware.
func Handle(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Same-origin checks don't apply on a household LAN.
		})
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, ac.TeamID)
		client.Run(r.Context())
	}
}
