package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	adapthttp "badam/internal/adapter/http"
	"badam/internal/adapter/postgres"
	"badam/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Local development reads a .env file; deployed environments set real
	// environment variables.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	addr := env("ADDR", ":8080")
	webDir := env("WEB_DIR", "public")

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := postgres.Open(connStr)
	if err != nil {
		logger.Error("db open", "err", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	sessionRepo := postgres.NewSessionRepo(db)

	authSvc := app.NewAuthService(db, db, sessionRepo)
	federatedSvc := app.NewFederatedService(db, db)
	counterSvc := app.NewCounterService(db)
	leaderboardSvc := app.NewLeaderboardService(db)

	var oidcCfg *adapthttp.OIDC
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		callbackURL := env("GOOGLE_CALLBACK_URL", "http://localhost:8080/api/auth/google/callback")
		oidcCfg, err = adapthttp.NewGoogleOIDC(context.Background(), clientID, clientSecret, callbackURL)
		if err != nil {
			logger.Error("oidc setup", "err", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set, google sign-in disabled")
	}

	go sweepSessions(authSvc, logger)

	srv := adapthttp.New(adapthttp.Options{
		Auth:         authSvc,
		Federated:    federatedSvc,
		Counter:      counterSvc,
		Leaderboard:  leaderboardSvc,
		OIDC:         oidcCfg,
		Logger:       logger,
		WebDir:       webDir,
		CookieSecure: env("COOKIE_SECURE", "false") == "true",
	})

	logger.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serve", "err", err)
		os.Exit(1)
	}
}

// sweepSessions periodically removes expired sessions.
func sweepSessions(auth *app.AuthService, logger *slog.Logger) {
	for range time.Tick(time.Hour) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := auth.PurgeExpiredSessions(ctx); err != nil {
			logger.Warn("purge expired sessions", "err", err)
		}
		cancel()
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
