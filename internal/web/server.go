package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/edvart/inhouse-scheduler/internal/auth"
	"github.com/edvart/inhouse-scheduler/internal/coordinator"
	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/push"
	"github.com/edvart/inhouse-scheduler/internal/store"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	router      *chi.Mux
	coordinator *coordinator.Coordinator
	store       store.Store
	relay       *auth.Relay
	admins      *auth.AdminConfig
	sse         *SSEHub
	pushService *push.Service
	mvpDefaults mvp.Config
	origins     []string
}

// Config holds server configuration.
type Config struct {
	// MVPDefaults fills ballot fields a request leaves out.
	MVPDefaults mvp.Config
	// AllowedOrigins enables CORS for browser clients. Empty disables it.
	AllowedOrigins []string
}

// NewServer creates a new HTTP server. pushService may be nil when push is not configured.
func NewServer(
	coord *coordinator.Coordinator,
	st store.Store,
	relay *auth.Relay,
	admins *auth.AdminConfig,
	pushService *push.Service,
	cfg Config,
) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		coordinator: coord,
		store:       st,
		relay:       relay,
		admins:      admins,
		sse:         NewSSEHub(),
		pushService: pushService,
		mvpDefaults: cfg.MVPDefaults,
		origins:     cfg.AllowedOrigins,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", auth.HeaderRelayToken, auth.HeaderUserID, auth.HeaderUserName},
		}).Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/push/vapid-public-key", s.handleGetVAPIDPublicKey)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(s.relay))

		r.Get("/events", s.handleSSE)

		r.Get("/polls/standings", s.handleStandings)
		r.Post("/polls/{scheduleID}/vote", s.handleToggleVote)

		r.Get("/session", s.handleSession)
		r.Post("/session/signup", s.handleSignUp)
		r.Post("/session/cancel", s.handleCancelSignUp)

		r.Get("/stats", s.handleStats)

		r.Post("/mvp/vote", s.handleCastMvpVote)
		r.Get("/mvp/tally", s.handleTally)

		r.Post("/push/subscribe", s.handleSubscribePush)
		r.Post("/push/unsubscribe", s.handleUnsubscribePush)
		r.Post("/push/test", s.handleTestPush)

		r.Group(func(r chi.Router) {
			r.Use(auth.AdminMiddleware(s.admins))

			r.Post("/polls", s.handleCreatePoll)
			r.Post("/polls/close", s.handleCloseVote)
			r.Post("/session/teams", s.handleAssignTeams)
			r.Post("/session/result", s.handleRecordResult)
			r.Post("/teams/adhoc", s.handleAssignAdHoc)
			r.Post("/mvp/ballot", s.handleOpenBallot)
			r.Post("/mvp/close", s.handleCloseBallot)
			r.Post("/mvp/daily", s.handleAwardDailyMVP)
			r.Post("/admin/members/sync", s.handleSyncMembers)
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// StartSSE starts the SSE hub goroutine.
func (s *Server) StartSSE(events <-chan coordinator.Event) {
	go s.sse.Run(events)
}
