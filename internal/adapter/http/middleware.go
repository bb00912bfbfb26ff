package adapthttp

import (
	"context"
	"errors"
	"net/http"

	"badam/internal/app"
	"badam/internal/domain"
)

type contextKey string

const accountContextKey contextKey = "account"

const sessionCookieName = "session"

// requireSession resolves the session cookie and puts the account into the
// request context. Requests without a valid session get a 401.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("not authenticated"))
			return
		}

		account, err := s.auth.ResolveSession(r.Context(), cookie.Value)
		if errors.Is(err, app.ErrSessionNotFound) || errors.Is(err, app.ErrSessionExpired) || errors.Is(err, app.ErrAccountNotFound) {
			writeError(w, http.StatusUnauthorized, errors.New("not authenticated"))
			return
		}
		if err != nil {
			s.log.Error("resolve session", "err", err)
			writeError(w, http.StatusInternalServerError, errInternal)
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, account)
		next(w, r.WithContext(ctx))
	}
}

// accountFrom returns the authenticated account stored by requireSession.
func accountFrom(r *http.Request) *domain.Account {
	account, _ := r.Context().Value(accountContextKey).(*domain.Account)
	return account
}
