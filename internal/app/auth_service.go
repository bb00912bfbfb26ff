// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"badam/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidInput indicates missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateUsername indicates the username is already taken.
	ErrDuplicateUsername = domain.ErrDuplicateUsername
	// ErrInvalidCredentials indicates that the provided username or password
	// was incorrect. The same error covers an unknown username and a wrong
	// password so the two cases cannot be told apart.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrAccountNotFound indicates that the account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// sessionTTL is the absolute session lifetime; there is no sliding renewal.
const sessionTTL = 24 * time.Hour

// dummyCredentialHash is a throwaway bcrypt hash compared against on the
// unknown-user signin path, so that path costs the same as a real compare.
var dummyCredentialHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthService handles local credential authentication and session management.
type AuthService struct {
	accounts domain.AccountRepository
	counters domain.CounterRepository
	sessions domain.SessionRepository
}

// NewAuthService creates a new authentication service.
func NewAuthService(accounts domain.AccountRepository, counters domain.CounterRepository, sessions domain.SessionRepository) *AuthService {
	return &AuthService{
		accounts: accounts,
		counters: counters,
		sessions: sessions,
	}
}

// Signup provisions a new local account with a zero badam count. The caller
// is expected to issue a session immediately afterwards.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*domain.Account, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.CreateLocal(ctx, username, string(hash))
	if err != nil {
		return nil, err
	}

	if err := s.counters.Set(ctx, account.ID, 0); err != nil {
		return nil, err
	}

	return account, nil
}

// Signin verifies a local username/password pair. Only accounts carrying a
// credential hash are considered; federated-only accounts cannot sign in here.
func (s *AuthService) Signin(ctx context.Context, username, password string) (*domain.Account, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	account, err := s.accounts.GetLocalByUsername(ctx, username)
	if err != nil || account == nil {
		// Burn the same compare cost as the known-user path so the two
		// failure branches are not distinguishable by timing.
		_ = bcrypt.CompareHashAndPassword(dummyCredentialHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.CredentialHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// IssueSession creates a session bound to the account and returns its token.
func (s *AuthService) IssueSession(ctx context.Context, account *domain.Account) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(sessionTTL)
	if err := s.sessions.Create(ctx, account.ID, token, expiresAt); err != nil {
		return "", err
	}

	return token, nil
}

// ResolveSession maps a token back to its account. Account fields are
// re-fetched on every resolution so profile changes are reflected without
// re-login. Expired sessions are deleted on read.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.Account, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	return account, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// PurgeExpiredSessions removes sessions past their expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
