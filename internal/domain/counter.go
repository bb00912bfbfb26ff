package domain

import (
	"context"
	"time"
)

// CounterRecord is the per-account badam count. Exactly one exists per
// account; it is created lazily with a zero value when first read.
type CounterRecord struct {
	AccountID int64
	Count     int
	UpdatedAt time.Time
}

// LeaderboardEntry is one row of the ranked accounts-by-count projection.
type LeaderboardEntry struct {
	Username  string    `json:"username"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// CounterRepository defines the port for counter persistence. There is no
// increment primitive on purpose: all mutation is whole-value replacement,
// which keeps the write idempotent for retries of the same value.
type CounterRepository interface {
	// Get returns the count for the account, creating a zero record if none
	// exists yet.
	Get(ctx context.Context, accountID int64) (int, error)
	// Set replaces the count. Implementations must perform the write as a
	// single atomic upsert of the one row per account.
	Set(ctx context.Context, accountID int64, count int) error
}

// LeaderboardRepository defines the port for the read-only leaderboard query.
type LeaderboardRepository interface {
	// Top returns up to limit entries ordered by count descending, with
	// account creation time ascending as the tie-break.
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}
