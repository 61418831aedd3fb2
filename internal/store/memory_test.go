package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerroomd/internal/deck"
	"pokerroomd/internal/handid"
)

func TestMemorySeatLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SeatClaim(ctx, "r1", 0, "alice", 1000))
	require.NoError(t, m.SeatClaim(ctx, "r1", 2, "bob", 1000))
	// Re-claiming a seat replaces the record rather than duplicating it.
	require.NoError(t, m.SeatClaim(ctx, "r1", 0, "carol", 500))

	seats := m.Seats("r1")
	require.Len(t, seats, 2)
	assert.Equal(t, SeatRecord{Seat: 0, PlayerID: "carol", Chips: 500}, seats[0])

	require.NoError(t, m.SeatRemoval(ctx, "r1", 0))
	require.NoError(t, m.SeatRemoval(ctx, "r1", 5)) // unknown seat is a no-op
	seats = m.Seats("r1")
	require.Len(t, seats, 1)
	assert.Equal(t, "bob", seats[0].PlayerID)
}

func TestMemoryHandLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	started := time.Now()
	id, err := m.HandStart(ctx, "r1", started)
	require.NoError(t, err)
	require.NoError(t, handid.Validate(id))

	hole := deck.MustParseCards("AhKs")
	require.NoError(t, m.PlayerDeal(ctx, id, 0, "alice", hole, 1000, 1000))
	require.NoError(t, m.Action(ctx, id, "alice", "bet", 100))

	board := deck.MustParseCards("2c7d9hJsAd")
	result := map[string]any{"reason": "fold-out"}
	require.NoError(t, m.HandFinish(ctx, id, started.Add(time.Minute), 100, board, "alice", result))

	rec, ok := m.Hand(id)
	require.True(t, ok)
	assert.Equal(t, "r1", rec.RoomID)
	assert.True(t, rec.Finished)
	assert.Equal(t, int64(100), rec.Pot)
	assert.Equal(t, "alice", rec.WinnerID)
	assert.Equal(t, []string{"2C", "7D", "9H", "JS", "AD"}, rec.Board)
	require.Len(t, rec.Deals, 1)
	assert.Equal(t, []string{"AH", "KS"}, rec.Deals[0].Hole)
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, int64(100), rec.Actions[0].Amount)

	// Writes against an unknown hand id are silently dropped.
	require.NoError(t, m.Action(ctx, "missing", "alice", "fold", 0))
	_, ok = m.Hand("missing")
	assert.False(t, ok)
}

func TestMemoryHandOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a, err := m.HandStart(ctx, "r1", time.Now())
	require.NoError(t, err)
	b, err := m.HandStart(ctx, "r2", time.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{a, b}, m.Hands())
}
