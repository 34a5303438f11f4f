// Package main is the entry point for the habit tracker server.
//
// The main package stays minimal on purpose: read configuration, create
// dependencies, start the application. All real logic lives in internal/
// packages where it can be imported and tested.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jonathanm/habit-tracker/internal/server"
)

func main() {
	// Structured logging to stdout. Levels: Debug → Info → Warn → Error;
	// LOG_LEVEL=debug turns on everything, the default Info keeps request
	// logs without per-query noise.
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// Configuration comes from environment variables with sensible
	// defaults — enough for an app this size; a config library would be
	// more machinery than the four values justify.
	port := 3005
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/habits.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	staticDir := "public"
	if envStatic := os.Getenv("STATIC_DIR"); envStatic != "" {
		staticDir = envStatic
	}

	guideDir := "guide"
	if envGuide := os.Getenv("GUIDE_DIR"); envGuide != "" {
		guideDir = envGuide
	}

	// SQLite needs its parent directory to exist before it can create the
	// database file. MkdirAll is `mkdir -p` — no error if already there.
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Port:      port,
		DBPath:    dbPath,
		StaticDir: staticDir,
		GuideDir:  guideDir,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until shutdown (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
