package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toolshub/internal/auth"
	"toolshub/internal/config"
	"toolshub/internal/db"
	"toolshub/internal/dbinit"
	"toolshub/internal/events"
	apphttp "toolshub/internal/http"
	"toolshub/internal/http/middleware"
	"toolshub/internal/logging"
	"toolshub/internal/session"
	"toolshub/internal/telegram"
	"toolshub/internal/users"

	"github.com/jonboulle/clockwork"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil && cfg == nil {
		panic(err)
	}

	l := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(l)

	if err != nil {
		slog.Warn("config.defaults", "path", *cfgPath, "err", err)
		slog.Warn("The JWT secret will be defined to a default value. This is a security risk in production.")
	}

	adminURL, err := cfg.Database.AdminURL()
	if err != nil {
		slog.Error("db.url", "err", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	if err := dbinit.EnsureDatabaseAndMigrate(ctx, adminURL, cfg.Database.Name, cfg.Database.User); err != nil {
		slog.Error("db.migrate", "err", err)
		os.Exit(1)
	}
	slog.Info("db.migrated")

	appURL, err := cfg.Database.AppURL()
	if err != nil {
		slog.Error("db.url", "err", err)
		os.Exit(1)
	}
	ctxpool, cancelpool := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancelpool()
	pool, err := db.NewPool(ctxpool, appURL, cfg.Database.MaxConns)
	if err != nil {
		slog.Error("db.pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	clock := clockwork.NewRealClock()
	store := &users.PGStore{DB: pool}
	buses := events.NewRegistry()
	sessions := &session.Manager{
		Tokens:   auth.NewTokens(cfg.Security.JWTSecret, cfg.Session.TTL),
		Users:    store,
		Buses:    buses,
		Notifier: telegram.New(cfg.Telegram.BotToken, cfg.Telegram.AdminChats),
		Cookie: session.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
		},
		BaseURL: cfg.BaseURL,
	}

	mux, err := apphttp.NewMux(apphttp.Options{
		Site: apphttp.Site{
			Menu:                cfg.Header.Config,
			Sessions:            sessions,
			Buses:               buses,
			Clock:               clock,
			SessionCheckTimeout: cfg.Header.SessionCheckTimeout,
		},
		Users:           store,
		LoginLimiter:    middleware.NewRateLimiter(clock, cfg.Session.LoginAttempts, time.Minute),
		StreamKeepAlive: cfg.Header.StreamKeepAlive,
	})
	if err != nil {
		slog.Error("Couldn't parse templates", "err", err)
		os.Exit(1)
	}
	srv := &http.Server{
		Addr:         cfg.HTTP.Address, // e.g. ":8080"
		Handler:      apphttp.WithStandardMiddleware(mux, sessions),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second, // the header stream lifts this per connection
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("http.starting", "addr", cfg.HTTP.Address, "app", cfg.Header.AppName)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http.listen", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http.shutting_down")
	_ = srv.Shutdown(ctx)
	slog.Info("http.stopped")
}
