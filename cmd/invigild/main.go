package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/config"
	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/domain/user"
	"github.com/invigil/invigil/internal/rest"
	"github.com/invigil/invigil/internal/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store, err := attachment.NewStore(cfg.Attachments.Dir)
	if err != nil {
		logger.Error("failed to prepare attachment store", "error", err)
		os.Exit(1)
	}

	studentRepo := sqlite.NewStudentRepository(db)
	batchRepo := sqlite.NewBatchRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	incidentRepo := sqlite.NewIncidentRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	hub := rest.NewHub(logger)
	activitySvc := activity.NewService(activityRepo, logger)
	userSvc := user.NewService(userRepo, logger)
	services := rest.Services{
		Students:  student.NewService(studentRepo, sessionRepo, logger),
		Sessions:  examsession.NewService(batchRepo, sessionRepo, activitySvc, logger),
		Incidents: incident.NewService(incidentRepo, sessionRepo, activitySvc, store, hub, logger),
		Users:     userSvc,
		Activity:  activitySvc,
	}

	if err := bootstrapAdmin(logger, userSvc); err != nil {
		logger.Error("failed to bootstrap admin account", "error", err)
		os.Exit(1)
	}

	router := rest.NewServer(services, hub, userSvc, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

// bootstrapAdmin creates the first admin account when the user table is
// empty, printing the one-time token to stdout.
func bootstrapAdmin(logger *slog.Logger, userSvc *user.Service) error {
	ctx := context.Background()
	existing, err := userSvc.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	email := os.Getenv("INVIGIL_ADMIN_EMAIL")
	if email == "" {
		email = "admin@localhost"
	}
	creds, err := userSvc.Create(ctx, user.CreateRequest{
		Name:  "Administrator",
		Email: email,
		Role:  user.RoleAdmin,
	})
	if err != nil {
		return err
	}
	logger.Info("created initial admin account", "email", email)
	fmt.Printf("initial admin token: %s\n", creds.Token)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
