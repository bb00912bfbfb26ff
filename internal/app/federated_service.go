package app

import (
	"context"
	"fmt"

	"badam/internal/domain"
)

// ExternalIdentity is a verified profile received from the identity provider.
// The upstream exchange has already verified the token; nothing here is
// re-verified.
type ExternalIdentity struct {
	FederatedID string
	Email       string
	DisplayName string
	AvatarURL   string
}

// FederatedService maps external verified identities onto accounts.
type FederatedService struct {
	accounts domain.AccountRepository
	counters domain.CounterRepository
}

// NewFederatedService creates a new federated identity resolver.
func NewFederatedService(accounts domain.AccountRepository, counters domain.CounterRepository) *FederatedService {
	return &FederatedService{accounts: accounts, counters: counters}
}

// Resolve returns the account for an external identity, creating or linking
// one as needed. The federated-id lookup runs before the email lookup so the
// operation stays idempotent across repeated logins. Any store error means
// no account is returned and the caller must not issue a session.
func (s *FederatedService) Resolve(ctx context.Context, identity ExternalIdentity) (*domain.Account, error) {
	if identity.FederatedID == "" {
		return nil, ErrInvalidInput
	}

	account, err := s.accounts.GetByFederatedID(ctx, identity.FederatedID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	// Account linking: an existing account with the same email and no
	// federated identity yet gets this one attached.
	if identity.Email != "" {
		account, err = s.accounts.GetByEmail(ctx, identity.Email)
		if err != nil {
			return nil, err
		}
		if account != nil && account.FederatedID == "" {
			if err := s.accounts.LinkFederatedIdentity(ctx, account.ID, identity.FederatedID, identity.AvatarURL); err != nil {
				return nil, err
			}
			linked, err := s.accounts.GetByFederatedID(ctx, identity.FederatedID)
			if err != nil {
				return nil, err
			}
			if linked != nil {
				return linked, nil
			}
		}
	}

	displayName := identity.DisplayName
	if displayName == "" {
		displayName = identity.Email
	}
	if displayName == "" {
		displayName = "Google User"
	}

	username, err := s.uniqueUsername(ctx, displayName)
	if err != nil {
		return nil, err
	}

	account, err = s.accounts.CreateFederated(ctx, identity.FederatedID, identity.Email, username, identity.AvatarURL)
	if err != nil {
		return nil, err
	}

	if err := s.counters.Set(ctx, account.ID, 0); err != nil {
		return nil, err
	}

	return account, nil
}

// uniqueUsername finds a free username for a display name, suffixing a
// counter when it is taken. Display names come from the provider and collide
// with local usernames; the unique index is the final arbiter for races.
func (s *FederatedService) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		existing, err := s.accounts.GetByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
