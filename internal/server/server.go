package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tasklevel/internal/auth"
	"github.com/dukerupert/tasklevel/internal/avatar"
	"github.com/dukerupert/tasklevel/internal/config"
	"github.com/dukerupert/tasklevel/internal/handler"
	"github.com/dukerupert/tasklevel/internal/lifecycle"
	"github.com/dukerupert/tasklevel/internal/middleware"
	"github.com/dukerupert/tasklevel/internal/push"
	"github.com/dukerupert/tasklevel/internal/store"
	"github.com/dukerupert/tasklevel/internal/tasklist"
	ws "github.com/dukerupert/tasklevel/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	verifier       *auth.Verifier
	profileStore   *store.ProfileStore
	listH          *handler.ListHandler
	profileH       *handler.ProfileHandler
	pushH          *handler.PushHandler
	service        *tasklist.Service
	pushScheduler  *push.Scheduler
	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	logger         *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	profileStore := store.NewProfileStore(db)
	listStore := store.NewListStore(db)
	pushStore := store.NewPushStore(db)

	// Push delivery is optional; without VAPID keys the dispatcher drops
	// every payload.
	var sender push.Sender
	var publicKey string
	if cfg.PushEnabled() {
		sender = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
		publicKey = cfg.VAPIDPublicKey
	}
	pushLogger := logger.With("component", "push")
	dispatcher := push.NewDispatcher(sender, pushStore, pushLogger)
	scheduler := push.NewScheduler(dispatcher, pushStore, store.NewScheduledStore(db), listStore, push.SchedulerConfig{
		Interval:       cfg.SchedulerInterval,
		ExpiringWindow: cfg.ExpiringWindow,
	}, pushLogger.With("component", "push_scheduler"))

	svc := tasklist.NewService(tasklist.Deps{
		Lists:    listStore,
		Votes:    store.NewVoteStore(db),
		Views:    store.NewViewStore(db),
		Profiles: profileStore,
		Calendar: lifecycle.Calendar{Offset: cfg.TimezoneOffset, MinValidity: lifecycle.MinValidity},
		Notifier: dispatcher,
		Jobs:     scheduler,
		Events:   hub,
		Logger:   logger.With("component", "tasklist"),
	})

	var avatars handler.AvatarUploader
	if cfg.AvatarsEnabled() {
		avatars = avatar.NewStore(avatar.Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		}, logger.With("component", "avatar"))
	}

	return &Server{
		db:             db,
		hub:            hub,
		verifier:       auth.NewVerifier(cfg.JWTSecret),
		profileStore:   profileStore,
		listH:          handler.NewListHandler(svc, logger.With("component", "list")),
		profileH:       handler.NewProfileHandler(profileStore, store.NewStatsStore(db), avatars, hub, logger.With("component", "profile")),
		pushH:          handler.NewPushHandler(pushStore, publicKey, dispatcher, logger.With("component", "push_handler")),
		service:        svc,
		pushScheduler:  scheduler,
		rateLimiter:    middleware.NewRateLimiter(),
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}
}

// Service returns the task-list service so shutdown can wait for it.
func (s *Server) Service() *tasklist.Service {
	return s.service
}

// PushScheduler returns the push notification scheduler.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes; a valid token is used when present
	optional := middleware.OptionalAuth(s.verifier)
	outerMux.HandleFunc("GET /health", handler.Health(s.db))
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.wsAuth, s.allowedOrigins, s.logger.With("component", "websocket")))
	outerMux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	outerMux.Handle("GET /api/public-lists", optional(http.HandlerFunc(s.listH.Public)))
	outerMux.Handle("GET /api/leaderboard", optional(http.HandlerFunc(s.profileH.Leaderboard)))
	outerMux.Handle("GET /api/profiles/{id}", optional(http.HandlerFunc(s.profileH.Get)))

	// Protected routes, wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.verifier, s.profileStore, s.logger.With("component", "auth"))
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

// wsAuth reads the token from ?token= since browsers cannot set headers on
// websocket upgrades.
func (s *Server) wsAuth(r *http.Request) (string, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}
	if token == "" {
		return "", false
	}
	sess, err := s.verifier.Verify(token)
	if err != nil {
		return "", false
	}
	return sess.ProfileID, true
}

// limited rate-limits h per route and profile.
func (s *Server) limited(h http.HandlerFunc, limit int, window time.Duration) http.Handler {
	key := func(r *http.Request) string {
		return r.Pattern + "|" + middleware.ProfileOrIP(r)
	}
	return middleware.RateLimit(s.rateLimiter, key, limit, window)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Profile
	mux.HandleFunc("GET /api/me", s.profileH.Me)
	mux.HandleFunc("PUT /api/me", s.profileH.UpdateMe)
	mux.Handle("PUT /api/me/avatar", s.limited(s.profileH.UploadAvatar, 5, time.Minute))

	// Character stats
	mux.HandleFunc("GET /api/me/stats", s.profileH.Stats)
	mux.Handle("POST /api/me/stats/{stat}/upgrade", s.limited(s.profileH.UpgradeStat, 30, time.Minute))
	mux.Handle("POST /api/me/stats/reset", s.limited(s.profileH.ResetStats, 5, time.Minute))

	// Lists and tasks
	mux.Handle("POST /api/lists", s.limited(s.listH.Create, 10, time.Minute))
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.HandleFunc("GET /api/lists/{id}", s.listH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.listH.SetTask)
	mux.HandleFunc("POST /api/lists/{id}/publish", s.listH.Publish)
	mux.HandleFunc("POST /api/lists/{id}/hide", s.listH.Hide)
	mux.HandleFunc("POST /api/lists/{id}/views", s.listH.RecordView)

	// Votes
	mux.Handle("POST /api/lists/{id}/votes", s.limited(s.listH.Vote, 60, time.Minute))
	mux.HandleFunc("GET /api/lists/{id}/votes", s.listH.Votes)

	// Push notifications
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscription", s.pushH.Unsubscribe)
	mux.Handle("POST /api/push/test", s.limited(s.pushH.TestNotification, 5, time.Minute))
}
