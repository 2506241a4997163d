// Command server runs the book-review web application.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	app "github.com/readingroom/bookreviews/internal/app"
	"github.com/readingroom/bookreviews/internal/app/httpapi"
	"github.com/readingroom/bookreviews/internal/app/storage/postgres"
	"github.com/readingroom/bookreviews/internal/config"
	"github.com/readingroom/bookreviews/internal/platform/migrations"
	"github.com/readingroom/bookreviews/internal/ratings"
	"github.com/readingroom/bookreviews/internal/session"
	"github.com/readingroom/bookreviews/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New("server", cfg.Log.Level, cfg.Log.Format)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrations.Apply(ctx, db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	sessionStore, err := buildSessionStore(cfg)
	if err != nil {
		return err
	}
	sessions := session.NewManager(session.Config{
		Store:      sessionStore,
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
	}, log)

	janitor := session.NewJanitor(sessionStore, cfg.Session.CleanupSchedule, log)
	if err := janitor.Start(ctx); err != nil {
		return fmt.Errorf("start session janitor: %w", err)
	}
	defer janitor.Stop()

	apiKey, err := cfg.ReadAPIKey()
	if err != nil {
		return err
	}
	lookup, err := ratings.New(nil, cfg.Ratings.Endpoint, apiKey, log)
	if err != nil {
		return err
	}

	render, err := httpapi.NewTemplateRenderer()
	if err != nil {
		return err
	}

	store := postgres.New(db)
	application := app.New(app.Stores{Users: store, Books: store, Reviews: store}, log)
	handler := httpapi.NewHandler(application, sessions, lookup, render, log)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "", "filesystem":
		return session.NewFSStore(cfg.Session.Dir)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddr})
		return session.NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
