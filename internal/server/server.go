package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/darby/hearth/internal/currency"
	"github.com/darby/hearth/internal/email"
	"github.com/darby/hearth/internal/handler"
	"github.com/darby/hearth/internal/middleware"
	"github.com/darby/hearth/internal/store"
	ws "github.com/darby/hearth/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	teamH        *handler.TeamHandler
	expenseH     *handler.ExpenseHandler
	groceryH     *handler.GroceryHandler
	calendarH    *handler.CalendarEventHandler
	sessionStore *store.SessionStore
	teamStore    *store.TeamStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, ratesSvc *currency.Service, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	teamStore := store.NewTeamStore(db)
	settingsStore := store.NewSettingsStore(db)
	expenseStore := store.NewExpenseStore(db)
	groceryStore := store.NewGroceryStore(db)
	eventStore := store.NewEventStore(db)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, teamStore, logger.With("component", "auth")),
		teamH:        handler.NewTeamHandler(teamStore, settingsStore, userStore, emailClient, hub, logger.With("component", "team")),
		expenseH:     handler.NewExpenseHandler(expenseStore, teamStore, settingsStore, ratesSvc, hub, logger.With("component", "expense")),
		groceryH:     handler.NewGroceryHandler(groceryStore, settingsStore, hub, logger.With("component", "grocery")),
		calendarH:    handler.NewCalendarEventHandler(eventStore, teamStore, settingsStore, hub, logger.With("component", "calendar")),
		sessionStore: sessionStore,
		teamStore:    teamStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// TeamStore returns the team store for invitation cleanup tasks.
func (s *Server) TeamStore() *store.TeamStore {
	return s.teamStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.teamStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	elevated := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireElevated(h)
	}

	// Session and account routes
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateProfile)
	mux.HandleFunc("GET /api/teams", s.authH.ListTeams)
	mux.HandleFunc("POST /api/teams/switch", s.authH.SwitchTeam)

	// Team and member routes
	mux.HandleFunc("GET /api/team", s.teamH.Get)
	mux.Handle("PUT /api/team", elevated(s.teamH.Update))
	mux.HandleFunc("DELETE /api/team", s.teamH.Delete)
	mux.HandleFunc("GET /api/team/members", s.teamH.ListMembers)
	mux.Handle("PUT /api/team/members/{id}/role", elevated(s.teamH.UpdateMemberRole))
	mux.HandleFunc("DELETE /api/team/members/{id}", s.teamH.RemoveMember)

	// Invitation routes
	mux.Handle("POST /api/team/invitations", elevated(s.teamH.Invite))
	mux.HandleFunc("GET /api/invitations", s.teamH.ListMyInvitations)
	mux.HandleFunc("POST /api/invitations/accept", s.teamH.AcceptInvitation)

	// Settings routes
	mux.HandleFunc("GET /api/team/settings", s.teamH.GetSettings)
	mux.Handle("PUT /api/team/settings", elevated(s.teamH.UpdateSettings))
	mux.HandleFunc("GET /api/currencies", s.teamH.ListCurrencies)

	// Expense routes
	mux.HandleFunc("POST /api/expenses", s.expenseH.Create)
	mux.HandleFunc("GET /api/expenses", s.expenseH.List)
	mux.HandleFunc("GET /api/expenses/debts", s.expenseH.Debts)
	mux.HandleFunc("GET /api/expenses/totals", s.expenseH.Totals)
	mux.HandleFunc("GET /api/expenses/{id}", s.expenseH.Get)
	mux.HandleFunc("PUT /api/expenses/{id}", s.expenseH.Update)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.expenseH.Delete)

	// Grocery routes
	mux.HandleFunc("POST /api/grocery-lists", s.groceryH.CreateList)
	mux.HandleFunc("GET /api/grocery-lists", s.groceryH.ListLists)
	mux.HandleFunc("PUT /api/grocery-lists/{id}", s.groceryH.RenameList)
	mux.HandleFunc("DELETE /api/grocery-lists/{id}", s.groceryH.DeleteList)
	mux.HandleFunc("POST /api/grocery-lists/{list_id}/items", s.groceryH.CreateItem)
	mux.HandleFunc("GET /api/grocery-lists/{list_id}/items", s.groceryH.ListItems)
	mux.HandleFunc("PUT /api/grocery-items/{id}", s.groceryH.UpdateItem)
	mux.HandleFunc("DELETE /api/grocery-items/{id}", s.groceryH.DeleteItem)
	mux.HandleFunc("POST /api/grocery-items/{id}/toggle", s.groceryH.ToggleCompleted)
	mux.HandleFunc("POST /api/grocery-lists/{list_id}/clear-completed", s.groceryH.ClearCompleted)

	// Calendar event routes
	mux.HandleFunc("POST /api/events", s.calendarH.Create)
	mux.HandleFunc("GET /api/events", s.calendarH.List)
	mux.HandleFunc("GET /api/events/export.ics", s.calendarH.ExportICS)
	mux.HandleFunc("GET /api/events/{id}", s.calendarH.Get)
	mux.HandleFunc("GET /api/events/{id}/export.ics", s.calendarH.ExportEventICS)
	mux.HandleFunc("PUT /api/events/{id}", s.calendarH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.calendarH.Delete)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))
}
