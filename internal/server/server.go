package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/volunteerhub/volunteerhub/internal/backup"
	"github.com/volunteerhub/volunteerhub/internal/handler"
	"github.com/volunteerhub/volunteerhub/internal/ledger"
	"github.com/volunteerhub/volunteerhub/internal/middleware"
	"github.com/volunteerhub/volunteerhub/internal/push"
	"github.com/volunteerhub/volunteerhub/internal/store"
	"github.com/volunteerhub/volunteerhub/internal/websocket"
	"github.com/volunteerhub/volunteerhub/internal/workflow"
)

type Server struct {
	db            *sql.DB
	hub           *websocket.Hub
	engine        *workflow.Engine
	authH         *handler.AuthHandler
	volunteerH    *handler.VolunteerHandler
	opportunityH  *handler.OpportunityHandler
	applicationH  *handler.ApplicationHandler
	benefitH      *handler.BenefitHandler
	redemptionH   *handler.RedemptionHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler
	sessionStore  *store.SessionStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, backupCfg backup.Config, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := websocket.NewHub(logger.With("component", "websocket"))

	volunteerStore := store.NewVolunteerStore(db)
	promoterStore := store.NewPromoterStore(db)
	opportunityStore := store.NewOpportunityStore(db)
	applicationStore := store.NewApplicationStore(db)
	benefitStore := store.NewBenefitStore(db)
	redemptionStore := store.NewRedemptionStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	ledgerStore := ledger.NewStore(db)
	locks := ledger.NewKeyedMutex()
	engine := workflow.NewEngine(db, ledgerStore, locks, logger.With("component", "workflow"))

	// Events fan out to websocket clients; push notifications are added
	// below when VAPID keys are configured.
	engine.OnEvent(func(ev workflow.Event) {
		hub.Broadcast(websocket.FromEvent(ev))
	})

	var pushSvc *push.Service
	var pushH *handler.PushHandler
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		notifier := push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
		engine.OnEvent(notifier.HandleEvent)
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	var backupMgr *backup.Manager
	var backupH *handler.BackupHandler
	if backupCfg.S3.Bucket != "" && backupCfg.Passphrase != "" {
		backupMgr = backup.NewManager(backupCfg, db, backupStore, logger.With("component", "backup"))
		backupH = handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler"))
	}

	return &Server{
		db:            db,
		hub:           hub,
		engine:        engine,
		authH:         handler.NewAuthHandler(volunteerStore, promoterStore, sessionStore, middleware.SessionCookieName(), logger.With("component", "auth")),
		volunteerH:    handler.NewVolunteerHandler(volunteerStore, redemptionStore, ledgerStore, logger.With("component", "volunteer")),
		opportunityH:  handler.NewOpportunityHandler(opportunityStore, applicationStore, engine, logger.With("component", "opportunity")),
		applicationH:  handler.NewApplicationHandler(applicationStore, opportunityStore, engine, logger.With("component", "application")),
		benefitH:      handler.NewBenefitHandler(benefitStore, engine, logger.With("component", "benefit")),
		redemptionH:   handler.NewRedemptionHandler(engine, logger.With("component", "redemption")),
		pushH:         pushH,
		backupH:       backupH,
		sessionStore:  sessionStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// Engine exposes the workflow engine, used by tests and cleanup tasks.
func (s *Server) Engine() *workflow.Engine {
	return s.engine
}

// SessionStore returns the session store for expiry cleanup.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager, nil when backups are not
// configured.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// Hub returns the websocket hub.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/auth/volunteers/register", s.rateLimitedHandler(s.authH.RegisterVolunteer))
	outerMux.HandleFunc("POST /api/auth/volunteers/login", s.rateLimitedHandler(s.authH.LoginVolunteer))
	outerMux.HandleFunc("POST /api/auth/promoters/register", s.rateLimitedHandler(s.authH.RegisterPromoter))
	outerMux.HandleFunc("POST /api/auth/promoters/login", s.rateLimitedHandler(s.authH.LoginPromoter))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else requires a session
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
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
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	// Volunteer directory and history
	mux.HandleFunc("GET /api/volunteers", s.volunteerH.List)
	mux.HandleFunc("GET /api/volunteers/{id}", s.volunteerH.Get)
	mux.HandleFunc("GET /api/volunteers/{id}/ledger", s.volunteerH.Ledger)
	mux.HandleFunc("GET /api/volunteers/{id}/redemptions", s.volunteerH.Redemptions)

	// Opportunities
	mux.Handle("POST /api/opportunities", promoter(s.opportunityH.Create))
	mux.HandleFunc("GET /api/opportunities", s.opportunityH.List)
	mux.HandleFunc("GET /api/opportunities/{id}", s.opportunityH.Get)
	mux.Handle("GET /api/opportunities/{id}/applications", promoter(s.opportunityH.Applications))
	mux.Handle("POST /api/opportunities/{id}/conclude", promoter(s.opportunityH.Conclude))

	// Applications
	mux.Handle("POST /api/applications", volunteer(s.applicationH.Apply))
	mux.Handle("GET /api/applications/mine", volunteer(s.applicationH.Mine))
	mux.HandleFunc("GET /api/applications/{id}", s.applicationH.Get)
	mux.Handle("PUT /api/applications/{id}/status", promoter(s.applicationH.SetStatus))
	mux.Handle("POST /api/applications/{id}/confirm", promoter(s.applicationH.Confirm))

	// Benefits
	mux.Handle("POST /api/benefits", promoter(s.benefitH.Create))
	mux.HandleFunc("GET /api/benefits", s.benefitH.List)
	mux.Handle("GET /api/benefits/affordable", volunteer(s.benefitH.Affordable))
	mux.HandleFunc("GET /api/benefits/{id}", s.benefitH.Get)
	mux.Handle("PUT /api/benefits/{id}", promoter(s.benefitH.Update))
	mux.Handle("POST /api/benefits/{id}/activate", promoter(s.benefitH.Activate))
	mux.Handle("POST /api/benefits/{id}/deactivate", promoter(s.benefitH.Deactivate))

	// Redemptions
	mux.Handle("POST /api/redemptions", volunteer(s.redemptionH.Redeem))

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.Handle("POST /api/push/subscribe", volunteer(s.pushH.Subscribe))
		mux.Handle("POST /api/push/unsubscribe", volunteer(s.pushH.Unsubscribe))
	}

	// Backups
	if s.backupH != nil {
		mux.Handle("GET /api/backups", promoter(s.backupH.Status))
		mux.Handle("POST /api/backups/run", promoter(s.backupH.Run))
	}

	// WebSocket
	mux.HandleFunc("GET /ws", websocket.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}

func promoter(h http.HandlerFunc) http.Handler {
	return middleware.RequirePromoter(h)
}

func volunteer(h http.HandlerFunc) http.Handler {
	return middleware.RequireVolunteer(h)
}
