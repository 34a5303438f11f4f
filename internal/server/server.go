// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the "composition root": the one place where the whole dependency
// chain is assembled —
//
//	sqlite.DB → HabitService → HabitHandler → routes
//
// Each layer only receives what it needs (the service gets the repository
// interface, the handler gets the service), and the server owns the
// database connection's lifetime: opened in New, closed on shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathanm/habit-tracker/internal/clock"
	"github.com/jonathanm/habit-tracker/internal/handler"
	"github.com/jonathanm/habit-tracker/internal/middleware"
	sqliteRepo "github.com/jonathanm/habit-tracker/internal/repository/sqlite"
	"github.com/jonathanm/habit-tracker/internal/service"
)

// Config holds everything the server needs to start. A struct (instead of a
// long parameter list) means adding an option later doesn't ripple through
// every signature.
type Config struct {
	Port      int
	DBPath    string // SQLite database file
	StaticDir string // the habit tracker front end (public/)
	GuideDir  string // the task guide front end (guide/)
}

// Server is the HTTP server and its owned resources.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB // closed during graceful shutdown
}

// New opens the database, wires all layers together and registers routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures middleware and all route handlers.
//
// ROUTE MAP:
//
//	GET    /                            → habit tracker app (static)
//	GET    /guide/*                     → task guide app (static)
//	GET    /metrics                     → Prometheus metrics
//	GET    /api/habits                  → list (?include_archived=true)
//	POST   /api/habits                  → create
//	GET    /api/habits/{id}             → fetch one
//	PATCH  /api/habits/{id}             → partial update
//	DELETE /api/habits/{id}             → delete (cascades history)
//	PUT    /api/habits/{id}/checkin     → daily check-in
//	PUT    /api/habits/{id}/archive     → soft-delete
//	PUT    /api/habits/{id}/restore     → un-archive
//	GET    /api/habits/{id}/history     → recent check-ins (?limit=n)
//	GET    /api/guide/check/{taskNumber}→ guide task auto-check
//
// Middleware order matters — it runs top to bottom:
// RequestID/RealIP first (so later middleware sees them), then metrics and
// logging (so they observe the final status), then Recoverer innermost-but-
// one (so a panic still gets logged as a 500 by the outer layers).
func (s *Server) setupRoutes() {
	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(registry)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// The two front ends are plain static files — no templates.
	// StripPrefix removes the URL prefix before the file lookup, so
	// GET /guide/style.css serves {GuideDir}/style.css.
	s.router.Handle("/guide/*", http.StripPrefix("/guide/",
		http.FileServer(http.Dir(s.config.GuideDir))))
	s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))

	s.router.Handle("/metrics", promhttp.HandlerFor(registry,
		promhttp.HandlerOpts{}))

	// DEPENDENCY CHAIN: db implements the repository interface; the
	// service gets the interface plus the real system clock; the handler
	// gets the service. Handlers never touch the database, the service
	// never touches HTTP.
	habitService := service.NewHabitService(s.db, clock.System{}, s.logger)
	habitHandler := handler.NewHabitHandler(habitService, s.logger)
	guideHandler := handler.NewGuideHandler(
		s.config.StaticDir+"/style.css",
		s.config.StaticDir+"/index.html",
		s.logger,
	)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/habits", habitHandler.HandleList)
		r.Post("/habits", habitHandler.HandleCreate)
		r.Get("/habits/{id}", habitHandler.HandleGetByID)
		r.Patch("/habits/{id}", habitHandler.HandleUpdate)
		r.Delete("/habits/{id}", habitHandler.HandleDelete)
		r.Put("/habits/{id}/checkin", habitHandler.HandleCheckin)
		r.Put("/habits/{id}/archive", habitHandler.HandleArchive)
		r.Put("/habits/{id}/restore", habitHandler.HandleRestore)
		r.Get("/habits/{id}/history", habitHandler.HandleHistory)

		r.Get("/guide/check/{taskNumber}", guideHandler.HandleCheck)
	})
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, give in-flight requests 30 seconds, close
// the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
