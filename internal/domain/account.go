// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateUsername is returned by account creation when the username is
// already taken. Persistent stores back it with a unique index, which is the
// authority against check-then-insert races.
var ErrDuplicateUsername = errors.New("username already exists")

// Account represents a user account. An account is local (Username and
// CredentialHash set), federated (FederatedID set), or both once a federated
// identity has been linked onto a previously local-only account. Capability
// is determined by field presence; an account is never created with neither.
type Account struct {
	ID             int64
	Username       string
	CredentialHash string
	FederatedID    string
	Email          string
	AvatarURL      string
	CreatedAt      time.Time
}

// DisplayName returns the name shown for the account, falling back to the
// email for federated accounts without a username.
func (a *Account) DisplayName() string {
	if a.Username != "" {
		return a.Username
	}
	return a.Email
}

// AccountRepository defines the port for account persistence operations.
// Lookup methods return (nil, nil) when no account matches.
type AccountRepository interface {
	CreateLocal(ctx context.Context, username, credentialHash string) (*Account, error)
	CreateFederated(ctx context.Context, federatedID, email, displayName, avatarURL string) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	// GetLocalByUsername only matches accounts that carry a credential hash,
	// so federated-only accounts are never reachable through password sign-in.
	GetLocalByUsername(ctx context.Context, username string) (*Account, error)
	GetByFederatedID(ctx context.Context, federatedID string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// LinkFederatedIdentity attaches a federated identity to an existing
	// account. The mutation must be a no-op when the account already has a
	// FederatedID; the uniqueness constraint on FederatedID is the authority
	// against double-link races.
	LinkFederatedIdentity(ctx context.Context, accountID int64, federatedID, avatarURL string) error
}
