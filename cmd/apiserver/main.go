// Package main is the courtesy-inspection API server entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/auth"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/httpapi"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/inspection"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/config"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/database"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/logger"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/metrics"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/migrations"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/portal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database.URL, database.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	})
	if err != nil {
		log.WithField("error", err.Error()).Fatal("open database")
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db.DB); err != nil {
		log.WithField("error", err.Error()).Fatal("apply migrations")
	}

	server := buildServer(db, cfg, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.RequestTimeout,
		WriteTimeout:      cfg.Server.RequestTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr()).Info("courtesy-inspection api listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithField("error", err.Error()).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err.Error()).Error("graceful shutdown failed")
	}
}

// buildServer wires every store and service onto the shared connection
// pool and returns the fully assembled HTTP surface.
func buildServer(db *sqlx.DB, cfg *config.Config, log *logger.Logger) *httpapi.Server {
	store := database.New(db)

	authStore := auth.NewStore(store)
	hasher := auth.NewPasswordHasher(cfg.Auth.BCryptCost)
	tokens := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, cfg.Auth.ClockSkew)
	authService := auth.NewService(authStore, hasher, tokens)

	inspectionStore := inspection.NewStore(store)
	inspectionService := inspection.NewService(inspectionStore)

	portalStore := portal.NewStore(store)
	portalService := portal.NewService(portalStore, inspectionStore, []byte(cfg.Auth.JWTSecret), cfg.Auth.PortalTTL, cfg.Auth.ClockSkew)

	return &httpapi.Server{
		Auth:        authService,
		Tokens:      tokens,
		Inspections: inspectionService,
		Portal:      portalService,
		Store:       store,
		Log:         log,
		Metrics:     metrics.New(),

		CORSOrigins:    cfg.Server.CORSOrigins,
		BodyLimit:      1 << 20,
		RequestTimeout: cfg.Server.RequestTimeout,
		RateRPS:        cfg.RateLimit.RequestsPerSecond,
		RateBurst:      cfg.RateLimit.Burst,
		PortalBaseURL:  cfg.Server.PortalBaseURL,
	}
}
