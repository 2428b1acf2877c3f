// Command storefront-auth serves the storefront's sign-in endpoints, building
// the provider list from the store settings on every request.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/panyam/storeauth"
	"github.com/panyam/storeauth/config"
	"github.com/panyam/storeauth/customer"
	"github.com/panyam/storeauth/settings"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	settingsClient := settings.NewClient(cfg.BackendURL,
		settings.WithRetryMax(cfg.SettingsRetries),
		settings.WithLogger(logger),
	)
	cache := settings.NewCache(settingsClient)
	cache.Freshness = cfg.SettingsTTL
	cache.Logger = logger

	customers := customer.NewClient(cfg.BackendURL,
		customer.WithHTTPClient(&http.Client{Timeout: cfg.BackendTimeout}),
		customer.WithLogger(logger),
	)

	builder := storeauth.NewBuilder(cache, customers)
	builder.Secret = cfg.Secret
	builder.Logger = logger

	session := scs.New()
	session.Lifetime = cfg.SessionMaxAge
	session.Cookie.Name = "storeauth_session"
	session.Cookie.HttpOnly = true
	session.Cookie.SameSite = http.SameSiteLaxMode
	session.Cookie.Secure = strings.HasPrefix(cfg.BaseURL, "https://")

	auth := &storeauth.Auth{
		Options:       builder.Build,
		BaseURL:       cfg.BaseURL,
		BasePath:      cfg.BasePath,
		Session:       session,
		SessionMaxAge: cfg.SessionMaxAge,
		Logger:        logger,
	}
	middleware := &storeauth.Middleware{Auth: auth, LoginURL: cfg.BaseURL + "/auth/login"}

	router := mux.NewRouter()
	auth.Routes(router)
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle(storeauth.DashboardPath, middleware.EnsureSession(http.HandlerFunc(dashboard)))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           session.LoadAndSave(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront auth listening", "addr", cfg.Addr, "base_url", cfg.BaseURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func dashboard(w http.ResponseWriter, r *http.Request) {
	session := storeauth.SessionFromContext(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Signed in as %s (%s)\n", session.User.Name, session.User.Email)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
