package app

import (
	"context"
	"testing"

	"badam/internal/adapter/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardService_OrderingAndTieBreak(t *testing.T) {
	db := memory.New()
	ctx := context.Background()

	first, err := db.CreateLocal(ctx, "first", "h")
	require.NoError(t, err)
	second, err := db.CreateLocal(ctx, "second", "h")
	require.NoError(t, err)
	third, err := db.CreateLocal(ctx, "third", "h")
	require.NoError(t, err)

	require.NoError(t, db.Set(ctx, first.ID, 5))
	require.NoError(t, db.Set(ctx, second.ID, 5))
	require.NoError(t, db.Set(ctx, third.ID, 3))

	entries, err := NewLeaderboardService(db).Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Equal counts rank by earlier creation time.
	assert.Equal(t, "first", entries[0].Username)
	assert.Equal(t, "second", entries[1].Username)
	assert.Equal(t, "third", entries[2].Username)
}

func TestLeaderboardService_DefaultLimit(t *testing.T) {
	db := memory.New()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		account, err := db.CreateLocal(ctx, "user"+string(rune('a'+i)), "h")
		require.NoError(t, err)
		require.NoError(t, db.Set(ctx, account.ID, i))
	}

	entries, err := NewLeaderboardService(db).Top(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLeaderboardLimit)
}
