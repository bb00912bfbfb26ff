package adapthttp

import (
	"log/slog"
	"net/http"

	"badam/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth        *app.AuthService
	federated   *app.FederatedService
	counter     *app.CounterService
	leaderboard *app.LeaderboardService
	oidc        *OIDC
	log         *slog.Logger
	webDir      string

	// cookieSecure flags session cookies Secure; enabled in production
	// behind TLS.
	cookieSecure bool
}

// Options configures a Server.
type Options struct {
	Auth         *app.AuthService
	Federated    *app.FederatedService
	Counter      *app.CounterService
	Leaderboard  *app.LeaderboardService
	OIDC         *OIDC // nil disables federated sign-in
	Logger       *slog.Logger
	WebDir       string
	CookieSecure bool
}

// New creates a Server wired to the given application services.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		auth:         opts.Auth,
		federated:    opts.Federated,
		counter:      opts.Counter,
		leaderboard:  opts.Leaderboard,
		oidc:         opts.OIDC,
		log:          logger,
		webDir:       opts.WebDir,
		cookieSecure: opts.CookieSecure,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/signup", s.handleSignup)
	api.HandleFunc("/signin", s.handleSignin)
	api.HandleFunc("/signout", s.handleSignout)
	api.HandleFunc("/user", s.requireSession(s.handleUser))

	api.HandleFunc("/badam", s.requireSession(s.handleBadam))
	api.HandleFunc("/badam/sync", s.requireSession(s.handleBadamSync))

	api.HandleFunc("/leaderboard", s.handleLeaderboard)

	api.HandleFunc("/auth/google", s.handleGoogleLogin)
	api.HandleFunc("/auth/google/callback", s.handleGoogleCallback)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
