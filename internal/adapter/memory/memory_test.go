package memory

import (
	"context"
	"testing"
	"time"

	"badam/internal/domain"
)

func TestAccountRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	local, err := db.CreateLocal(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("CreateLocal: %v", err)
	}
	if local.ID == 0 {
		t.Error("expected non-zero ID")
	}

	got, err := db.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got == nil || got.ID != local.ID {
		t.Errorf("expected account %d, got %+v", local.ID, got)
	}

	got, _ = db.GetLocalByUsername(ctx, "alice")
	if got == nil {
		t.Error("expected credentialed account to be reachable")
	}

	fed, err := db.CreateFederated(ctx, "g-1", "bob@example.com", "Bob", "")
	if err != nil {
		t.Fatalf("CreateFederated: %v", err)
	}

	// Federated-only accounts are invisible to the local lookup.
	got, _ = db.GetLocalByUsername(ctx, "Bob")
	if got != nil {
		t.Error("expected federated-only account to be unreachable via local lookup")
	}

	got, _ = db.GetByFederatedID(ctx, "g-1")
	if got == nil || got.ID != fed.ID {
		t.Errorf("expected account %d by federated id, got %+v", fed.ID, got)
	}

	got, _ = db.GetByEmail(ctx, "bob@example.com")
	if got == nil || got.ID != fed.ID {
		t.Errorf("expected account %d by email, got %+v", fed.ID, got)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	db := New()
	ctx := context.Background()

	if _, err := db.CreateLocal(ctx, "alice", "hash"); err != nil {
		t.Fatalf("CreateLocal: %v", err)
	}

	if _, err := db.CreateLocal(ctx, "alice", "other-hash"); err != domain.ErrDuplicateUsername {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
	if _, err := db.CreateFederated(ctx, "g-1", "a@example.com", "alice", ""); err != domain.ErrDuplicateUsername {
		t.Errorf("expected ErrDuplicateUsername for federated display name, got %v", err)
	}

	got, _ := db.GetByUsername(ctx, "alice")
	if got == nil || got.CredentialHash != "hash" {
		t.Errorf("expected the original account to survive, got %+v", got)
	}
}

func TestGetByEmailPicksOldestAccount(t *testing.T) {
	db := New()
	ctx := context.Background()

	first, _ := db.CreateFederated(ctx, "g-1", "shared@example.com", "First", "")
	_, _ = db.CreateFederated(ctx, "g-2", "shared@example.com", "Second", "")

	got, err := db.GetByEmail(ctx, "shared@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got == nil || got.ID != first.ID {
		t.Errorf("expected earliest account %d, got %+v", first.ID, got)
	}
}

func TestLinkFederatedIdentity(t *testing.T) {
	db := New()
	ctx := context.Background()

	local, _ := db.CreateLocal(ctx, "alice", "hash")
	if err := db.LinkFederatedIdentity(ctx, local.ID, "g-9", "pic"); err != nil {
		t.Fatalf("LinkFederatedIdentity: %v", err)
	}

	got, _ := db.GetByFederatedID(ctx, "g-9")
	if got == nil || got.ID != local.ID {
		t.Fatalf("expected linked account, got %+v", got)
	}
	if got.CredentialHash != "hash" {
		t.Error("linking must not drop the credential")
	}

	// A second link attempt is a no-op.
	_ = db.LinkFederatedIdentity(ctx, local.ID, "g-other", "")
	got, _ = db.GetByFederatedID(ctx, "g-9")
	if got == nil {
		t.Error("original federated id should be untouched")
	}
}

func TestCounterRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	count, err := db.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if count != 0 {
		t.Errorf("expected lazy zero, got %d", count)
	}

	if err := db.Set(ctx, 1, 5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	count, _ = db.Get(ctx, 1)
	if count != 5 {
		t.Errorf("expected 5, got %d", count)
	}

	// Negative writes clamp to zero.
	_ = db.Set(ctx, 1, -3)
	count, _ = db.Get(ctx, 1)
	if count != 0 {
		t.Errorf("expected clamp to 0, got %d", count)
	}
}

func TestLeaderboard(t *testing.T) {
	db := New()
	ctx := context.Background()

	a, _ := db.CreateLocal(ctx, "a", "h")
	b, _ := db.CreateLocal(ctx, "b", "h")
	_ = db.Set(ctx, a.ID, 2)
	_ = db.Set(ctx, b.ID, 9)

	entries, err := db.Top(ctx, 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Username != "b" || entries[0].Count != 9 {
		t.Errorf("expected b/9 first, got %+v", entries[0])
	}

	entries, _ = db.Top(ctx, 1)
	if len(entries) != 1 {
		t.Errorf("expected limit to apply, got %d entries", len(entries))
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()

	expiresAt := time.Now().Add(time.Hour)
	if err := repo.Create(ctx, 1, "tok", expiresAt); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s, err := repo.GetByToken(ctx, "tok")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if s == nil || s.AccountID != 1 {
		t.Errorf("expected session for account 1, got %+v", s)
	}

	if err := repo.Delete(ctx, "tok"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	s, _ = repo.GetByToken(ctx, "tok")
	if s != nil {
		t.Error("expected session to be deleted")
	}

	_ = repo.Create(ctx, 2, "stale", time.Now().Add(-time.Minute))
	_ = repo.Create(ctx, 3, "fresh", time.Now().Add(time.Hour))
	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if s, _ := repo.GetByToken(ctx, "stale"); s != nil {
		t.Error("expected expired session to be purged")
	}
	if s, _ := repo.GetByToken(ctx, "fresh"); s == nil {
		t.Error("expected fresh session to survive")
	}
}
