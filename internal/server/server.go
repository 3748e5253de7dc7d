package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/floorreports/apiserver/config"
	"github.com/floorreports/apiserver/internal/artifacts"
	"github.com/floorreports/apiserver/internal/db"
	"github.com/floorreports/apiserver/internal/events"
	"github.com/floorreports/apiserver/internal/handlers"
	"github.com/floorreports/apiserver/internal/services"
	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/internal/supabase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server, its router and the background sync loop.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *events.Bus
	sync       *services.SyncService
	sessions   *services.SessionService
	cfg        config.Config
	logger     *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New constructs a Server: opens the database, wires repositories, services
// and handlers, seeds the default admin and runs the startup defect sync.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	sessionRepo := store.NewSessionRepository(dbConn)
	defectRepo := store.NewDefectCodeRepository(dbConn)
	reportRepo := store.NewReportRepository(dbConn)
	settingRepo := store.NewSettingRepository(dbConn)

	bus, err := events.NewBusFromConfig(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("events backend: %w", err)
	}

	artifactStore, err := artifacts.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		_ = bus.Close()
		return nil, fmt.Errorf("artifact storage: %w", err)
	}

	fetcher := supabase.NewClient(cfg.Remote, logger)

	userService := services.NewUserService(userRepo)
	sessionService := services.NewSessionService(sessionRepo, cfg.Session.TTL)
	syncService := services.NewSyncService(fetcher, defectRepo, bus, logger)
	reportService := services.NewReportService(reportRepo, bus, logger)
	settingsService := services.NewSettingsService(settingRepo)
	weeklyService, err := services.NewWeeklyReportService(reportRepo, artifactStore, logger)
	if err != nil {
		_ = dbConn.Close()
		_ = bus.Close()
		return nil, err
	}

	webHandler, err := handlers.NewWebHandler(
		userService,
		sessionService,
		reportService,
		settingsService,
		cfg.Session.SecureCookie,
		logger,
	)
	if err != nil {
		_ = dbConn.Close()
		_ = bus.Close()
		return nil, err
	}

	reportHandler := handlers.NewReportHandler(reportService, syncService, weeklyService, userService, logger)
	adminHandler := handlers.NewAdminHandler(userService, settingsService, logger)
	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Group(webHandler.WebRouter)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.APIAuthRouter(r, userService, jwtSecret)
		})
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			reportHandler.ReportRouter(r)
			r.Route("/admin", adminHandler.AdminRouter)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srv := &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		sync:       syncService,
		sessions:   sessionService,
		cfg:        cfg,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}

	if err := srv.bootstrap(ctx, userService); err != nil {
		_ = srv.Shutdown()
		return nil, err
	}

	return srv, nil
}

// bootstrap seeds the default admin, purges stale sessions and runs the
// startup defect code sync. A failed sync is logged and the cache keeps its
// previous contents.
func (s *Server) bootstrap(ctx context.Context, users *services.UserService) error {
	admin, created, err := users.EnsureDefaultAdmin(ctx, s.cfg.Seed.AdminUsername, s.cfg.Seed.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure default admin: %w", err)
	}
	if created {
		s.logger.Info("default admin created", "username", admin.Username)
	}

	if purged, err := s.sessions.PurgeExpired(ctx); err != nil {
		s.logger.Warn("failed to purge expired sessions", "error", err)
	} else if purged > 0 {
		s.logger.Info("expired sessions purged", "count", purged)
	}

	if !s.cfg.Remote.Configured() {
		s.logger.Warn("remote defect source not configured; defect code sync disabled")
		return nil
	}

	if _, err := s.sync.Sync(ctx); err != nil {
		s.logger.Warn("startup defect code sync failed; keeping cached entries", "error", err)
	}
	return nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start launches the background sync loop and runs the HTTP server. It
// blocks until the server stops.
func (s *Server) Start() error {
	if s.cfg.Remote.Configured() && s.cfg.Sync.Interval > 0 {
		s.wg.Add(1)
		go s.syncLoop()
	}
	return s.httpServer.ListenAndServe()
}

// syncLoop refreshes the defect code cache on the configured interval until
// the server shuts down.
func (s *Server) syncLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			if _, err := s.sync.Sync(ctx); err != nil {
				s.logger.Warn("scheduled defect code sync failed; keeping cached entries", "error", err)
			}
			cancel()
		}
	}
}

// Shutdown stops the sync loop and attempts a graceful HTTP shutdown.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	if s.bus != nil {
		if closeErr := s.bus.Close(); closeErr != nil {
			s.logger.Warn("failed to close event bus", "error", closeErr)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
