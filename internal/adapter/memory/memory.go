// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"badam/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	accounts []*domain.Account
	counts   map[int64]*domain.CounterRecord
	sessions map[string]*domain.Session

	accountIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		counts:   make(map[int64]*domain.CounterRecord),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.AccountRepository = (*DB)(nil)
var _ domain.CounterRepository = (*DB)(nil)
var _ domain.LeaderboardRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- AccountRepository ---

// usernameTakenLocked reports whether any account already holds the username.
// Callers must hold db.mu.
func (db *DB) usernameTakenLocked(username string) bool {
	for _, a := range db.accounts {
		if a.Username == username {
			return true
		}
	}
	return false
}

// CreateLocal creates a new local-credential account.
func (db *DB) CreateLocal(ctx context.Context, username, credentialHash string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.usernameTakenLocked(username) {
		return nil, domain.ErrDuplicateUsername
	}
	db.accountIDCounter++
	a := &domain.Account{
		ID:             db.accountIDCounter,
		Username:       username,
		CredentialHash: credentialHash,
		CreatedAt:      time.Now().UTC(),
	}
	db.accounts = append(db.accounts, a)
	return a, nil
}

// CreateFederated creates a new federated account with the display name as
// username.
func (db *DB) CreateFederated(ctx context.Context, federatedID, email, displayName, avatarURL string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.usernameTakenLocked(displayName) {
		return nil, domain.ErrDuplicateUsername
	}
	db.accountIDCounter++
	a := &domain.Account{
		ID:          db.accountIDCounter,
		Username:    displayName,
		FederatedID: federatedID,
		Email:       email,
		AvatarURL:   avatarURL,
		CreatedAt:   time.Now().UTC(),
	}
	db.accounts = append(db.accounts, a)
	return a, nil
}

// GetByID retrieves an account by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

// GetByUsername retrieves an account by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, nil
}

// GetLocalByUsername retrieves an account by username, restricted to accounts
// with a credential hash.
func (db *DB) GetLocalByUsername(ctx context.Context, username string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.Username == username && a.CredentialHash != "" {
			return a, nil
		}
	}
	return nil, nil
}

// GetByFederatedID retrieves an account by federated identity reference.
func (db *DB) GetByFederatedID(ctx context.Context, federatedID string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.FederatedID != "" && a.FederatedID == federatedID {
			return a, nil
		}
	}
	return nil, nil
}

// GetByEmail retrieves an account by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.Email != "" && a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

// LinkFederatedIdentity attaches a federated identity to an account that has
// none yet; already-linked accounts are left untouched.
func (db *DB) LinkFederatedIdentity(ctx context.Context, accountID int64, federatedID, avatarURL string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.ID == accountID && a.FederatedID == "" {
			a.FederatedID = federatedID
			if avatarURL != "" {
				a.AvatarURL = avatarURL
			}
			return nil
		}
	}
	return nil
}

// --- CounterRepository ---

// Get returns the count for the account, creating a zero record if missing.
func (db *DB) Get(ctx context.Context, accountID int64) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if rec, ok := db.counts[accountID]; ok {
		return rec.Count, nil
	}
	db.counts[accountID] = &domain.CounterRecord{
		AccountID: accountID,
		UpdatedAt: time.Now().UTC(),
	}
	return 0, nil
}

// Set replaces the count, clamping negatives to zero.
func (db *DB) Set(ctx context.Context, accountID int64, count int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if count < 0 {
		count = 0
	}
	db.counts[accountID] = &domain.CounterRecord{
		AccountID: accountID,
		Count:     count,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// --- LeaderboardRepository ---

// Top returns the ranked projection over accounts and counts.
func (db *DB) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entries := make([]domain.LeaderboardEntry, 0, len(db.accounts))
	for _, a := range db.accounts {
		var count int
		if rec, ok := db.counts[a.ID]; ok {
			count = rec.Count
		}
		entries = append(entries, domain.LeaderboardEntry{
			Username:  a.DisplayName(),
			Count:     count,
			CreatedAt: a.CreatedAt,
			AvatarURL: a.AvatarURL,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, accountID int64, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		AccountID: accountID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		return s, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
