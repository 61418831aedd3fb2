package game

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerroomd/internal/store"
)

func newTimedManager(t *testing.T, timeout time.Duration) (*Manager, *quartz.Mock, *store.Memory) {
	t.Helper()
	mock := quartz.NewMock(t)
	st := store.NewMemory()
	m := New(log.New(io.Discard), st, WithClock(mock), WithTurnTimeout(timeout))
	return m, mock, st
}

func TestTurnTimeoutAutoFolds(t *testing.T) {
	ctx := context.Background()
	m, mock, st := newTimedManager(t, 30*time.Second)

	for _, p := range []string{"alice", "bob", "carol"} {
		_, err := m.JoinRoom(ctx, p, "r1", nil)
		require.NoError(t, err)
	}
	handID, err := m.StartHand(ctx, "r1")
	require.NoError(t, err)
	drainEvents(m)

	// Alice sits on the turn past the deadline and is folded for her.
	mock.Advance(30 * time.Second).MustWait(ctx)

	snap, err := m.Snapshot("r1")
	require.NoError(t, err)
	require.NotNil(t, snap.Hand, "two live seats remain, hand continues")
	assert.Equal(t, 1, snap.Hand.CurrentTurn)
	for _, s := range snap.Seats {
		if s.PlayerID == "alice" {
			assert.False(t, s.InHand)
		}
	}

	events := drainEvents(m)
	require.Len(t, events, 1)
	applied, ok := events[0].Payload.(ActionAppliedPayload)
	require.True(t, ok)
	assert.Equal(t, ActionFold, applied.Kind)
	assert.Equal(t, 0, applied.Seat)
	assert.True(t, applied.TimedOut)

	rec, ok := st.Hand(handID)
	require.True(t, ok)
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, "fold", rec.Actions[0].Kind)
	assert.Equal(t, "alice", rec.Actions[0].PlayerID)
}

func TestTimerRearmsAfterEachAction(t *testing.T) {
	ctx := context.Background()
	m, mock, _ := newTimedManager(t, 30*time.Second)

	for _, p := range []string{"alice", "bob", "carol"} {
		_, err := m.JoinRoom(ctx, p, "r1", nil)
		require.NoError(t, err)
	}
	_, err := m.StartHand(ctx, "r1")
	require.NoError(t, err)

	// Acting just before the deadline supersedes alice's timer and arms a
	// fresh one for bob.
	mock.Advance(29 * time.Second).MustWait(ctx)
	require.NoError(t, m.HandleAction(ctx, "alice", "r1", ActionCheck, 0))

	mock.Advance(29 * time.Second).MustWait(ctx)
	snap, err := m.Snapshot("r1")
	require.NoError(t, err)
	for _, s := range snap.Seats {
		assert.True(t, s.InHand, "no seat folds before its own deadline")
	}

	// One more second crosses bob's deadline.
	mock.Advance(time.Second).MustWait(ctx)
	snap, err = m.Snapshot("r1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Hand.CurrentTurn, "turn moves past folded bob to carol")
	for _, s := range snap.Seats {
		if s.PlayerID == "bob" {
			assert.False(t, s.InHand)
		}
	}
}

func TestTimeoutFinishesHandWhenOneSeatRemains(t *testing.T) {
	ctx := context.Background()
	m, mock, st := newTimedManager(t, 30*time.Second)

	_, err := m.JoinRoom(ctx, "alice", "r1", nil)
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, "bob", "r1", nil)
	require.NoError(t, err)
	handID, err := m.StartHand(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, m.HandleAction(ctx, "alice", "r1", ActionBet, 100))

	// Bob times out heads-up: his fold leaves one live seat, so the hand
	// finishes and alice collects her own bet back.
	mock.Advance(30 * time.Second).MustWait(ctx)

	snap, err := m.Snapshot("r1")
	require.NoError(t, err)
	assert.Nil(t, snap.Hand)
	for _, s := range snap.Seats {
		if s.PlayerID == "alice" {
			assert.Equal(t, int64(1000), s.Chips)
		}
	}

	rec, ok := st.Hand(handID)
	require.True(t, ok)
	assert.True(t, rec.Finished)
	assert.Equal(t, "alice", rec.WinnerID)
	assert.Equal(t, "fold-out", rec.Result["reason"])
}

func TestFinishCancelsOutstandingTimer(t *testing.T) {
	ctx := context.Background()
	m, mock, _ := newTimedManager(t, 30*time.Second)

	_, err := m.JoinRoom(ctx, "alice", "r1", nil)
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, "bob", "r1", nil)
	require.NoError(t, err)
	_, err = m.StartHand(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, m.FinishHand(ctx, "r1"))
	drainEvents(m)

	// The old deadline passing must not touch the next hand.
	_, err = m.StartHand(ctx, "r1")
	require.NoError(t, err)
	drainEvents(m)
	mock.Advance(29 * time.Second).MustWait(ctx)

	snap, err := m.Snapshot("r1")
	require.NoError(t, err)
	require.NotNil(t, snap.Hand)
	for _, s := range snap.Seats {
		assert.True(t, s.InHand)
	}
	assert.Empty(t, drainEvents(m))
}

func TestZeroTimeoutDisablesTimers(t *testing.T) {
	ctx := context.Background()
	mock := quartz.NewMock(t)
	m := New(log.New(io.Discard), store.NewMemory(), WithClock(mock), WithTurnTimeout(0))

	_, err := m.JoinRoom(ctx, "alice", "r1", nil)
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, "bob", "r1", nil)
	require.NoError(t, err)
	_, err = m.StartHand(ctx, "r1")
	require.NoError(t, err)

	mock.Advance(time.Hour).MustWait(ctx)

	snap, err := m.Snapshot("r1")
	require.NoError(t, err)
	require.NotNil(t, snap.Hand)
	for _, s := range snap.Seats {
		assert.True(t, s.InHand)
	}
}
