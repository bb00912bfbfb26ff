package app

import (
	"context"

	"badam/internal/domain"
)

// DefaultLeaderboardLimit is used when no limit (or a non-positive one) is
// requested.
const DefaultLeaderboardLimit = 10

// LeaderboardService exposes the ranked accounts-by-count projection.
type LeaderboardService struct {
	leaderboard domain.LeaderboardRepository
}

// NewLeaderboardService creates a LeaderboardService backed by the given
// repository.
func NewLeaderboardService(leaderboard domain.LeaderboardRepository) *LeaderboardService {
	return &LeaderboardService{leaderboard: leaderboard}
}

// Top returns up to limit entries, count descending with creation time
// ascending as tie-break.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	return s.leaderboard.Top(ctx, limit)
}
