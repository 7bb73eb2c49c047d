package api

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/rs/cors"

	"github.com/coldchain/loadplan/internal/auth"
	"github.com/coldchain/loadplan/internal/config"
	"github.com/coldchain/loadplan/internal/db"
	"github.com/coldchain/loadplan/internal/queue"
	"github.com/coldchain/loadplan/internal/services"
)

// Server wires the HTTP API: plan-run triggering and status, depot and
// system settings, audit queries, and the OAuth login flow against the
// instance-source.
type Server struct {
	config          *config.Config
	db              *db.Queries
	router          *mux.Router
	sessionStore    sessions.Store
	authManager     *auth.Manager
	natsManager     *queue.Manager
	auditService    *services.AuditService
	settingsService *services.SettingsService
	rateLimiter     *services.RateLimiterService
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, queries *db.Queries, natsManager *queue.Manager, database *sql.DB) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	authManager := auth.NewManager(cfg, sessionStore)
	auditService := services.NewAuditService(queries)
	settingsService := services.NewSettingsService(queries, auditService)
	rateLimiter := services.NewRateLimiterService(queries)

	s := &Server{
		config:          cfg,
		db:              queries,
		router:          mux.NewRouter(),
		sessionStore:    sessionStore,
		authManager:     authManager,
		natsManager:     natsManager,
		auditService:    auditService,
		settingsService: settingsService,
		rateLimiter:     rateLimiter,
	}

	s.setupRoutes()
	return s
}

// Router returns the configured HTTP router with CORS applied.
func (s *Server) Router() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.config.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: s.config.CORSAllowCredentials,
		MaxAge:           300,
	})

	return c.Handler(s.router)
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/login", s.handleLogin).Methods("POST")
	authRouter.HandleFunc("/callback", s.handleAuthCallback).Methods("GET")
	authRouter.HandleFunc("/logout", s.handleLogout).Methods("POST")
	authRouter.HandleFunc("/status", s.handleAuthStatus).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(s.authMiddleware)

	// Plan runs: trigger, poll, cancel, stream progress, list history.
	protected.HandleFunc("/depots/{depotId}/plans", s.handleRequestPlanRun).Methods("POST")
	protected.HandleFunc("/depots/{depotId}/plans", s.handleListPlanRuns).Methods("GET")
	protected.HandleFunc("/plans/{jobId}", s.handleGetPlanRun).Methods("GET")
	protected.HandleFunc("/plans/{jobId}/cancel", s.handleCancelPlanRun).Methods("POST")
	protected.HandleFunc("/plans/{jobId}/progress", s.handlePlanRunProgressSSE).Methods("GET")

	// Depot settings (policy overrides) - any authenticated caller may view
	// and update a depot's settings; no per-depot ownership check is made.
	protected.HandleFunc("/depots/{depotId}/settings", s.handleGetDepotSettings).Methods("GET")
	protected.HandleFunc("/depots/{depotId}/settings", s.handleUpdateDepotSettings).Methods("PUT")

	// Audit log (read-only for any authenticated caller).
	protected.HandleFunc("/audit-log", s.handleListAuditLogs).Methods("GET")

	// System settings (admin only).
	adminRouter := protected.PathPrefix("/settings/system").Subrouter()
	adminRouter.Use(s.adminMiddleware)
	adminRouter.HandleFunc("", s.handleGetSystemSettings).Methods("GET")
	adminRouter.HandleFunc("", s.handleUpdateSystemSettings).Methods("PUT")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) logf(format string, args ...interface{}) {
	log.Printf(format, args...)
}
