package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/config"
	"github.com/AdamBeresnev/op-bracket/internal/db"
	"github.com/AdamBeresnev/op-bracket/internal/live"
	"github.com/AdamBeresnev/op-bracket/internal/media"
	"github.com/AdamBeresnev/op-bracket/internal/middleware"
	"github.com/AdamBeresnev/op-bracket/internal/service"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jmoiron/sqlx"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	sessionManager, err := newSessionManager(cfg, database)
	if err != nil {
		return err
	}

	logos, err := newLogoResolver(ctx, cfg.Logos)
	if err != nil {
		return err
	}

	hub := live.NewHub(cfg.CORSOrigins)
	go hub.Run(ctx)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(3 * time.Minute)
			}
		}
	}()

	tournamentStore := store.NewTournamentStore(database)
	userStore := store.NewUserStore(database)
	collector := service.NewParticipantCollector(tournamentStore, store.NewRegistrationStore(database), userStore, logos, cfg.EnrichConcurrency)

	app := &application{
		sessionManager: sessionManager,
		userStore:      userStore,
		users:          service.NewUserService(userStore),
		brackets:       service.NewBracketService(database, tournamentStore, collector, bracket.Builder{Policy: cfg.ByePolicy}),
		matches:        service.NewMatchService(database, tournamentStore),
		hub:            hub,
		limiter:        limiter,
		corsOrigins:    cfg.CORSOrigins,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", "http://localhost"+srv.Addr, "bye_policy", cfg.ByePolicy)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSessionManager(cfg *config.Config, database *sqlx.DB) (*scs.SessionManager, error) {
	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	if database.DriverName() == db.DriverSQLite {
		if err := db.EnsureSessionTable(database.DB); err != nil {
			return nil, fmt.Errorf("failed to create session table: %w", err)
		}
		sessionManager.Store = sqlite3store.New(database.DB)
	} else {
		sessionManager.Store = memstore.New()
	}
	return sessionManager, nil
}

func newLogoResolver(ctx context.Context, cfg config.LogoConfig) (media.Resolver, error) {
	if cfg.Bucket == "" {
		return media.PublicURLResolver{BaseURL: cfg.BaseURL}, nil
	}
	return media.NewS3Resolver(ctx, media.S3Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretKey,
		Lifetime:        cfg.URLLifetime,
	})
}
