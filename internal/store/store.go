// Package store defines the persistence boundary for room and hand facts.
// The game core appends facts through this interface and never reads them
// back for correctness; implementations are free to write to Postgres, a log,
// or memory.
package store

import (
	"context"
	"time"

	"pokerroomd/internal/deck"
)

// Store records the facts the game core produces. Every method may be called
// while a room lock is held, so implementations must not call back into the
// game core. Errors are surfaced to the caller but never roll back in-memory
// state.
type Store interface {
	// SeatClaim records a player taking a seat with a starting stack.
	SeatClaim(ctx context.Context, roomID string, seat int, playerID string, chips int64) error

	// SeatRemoval records a seat being vacated.
	SeatRemoval(ctx context.Context, roomID string, seat int) error

	// HandStart opens a hand record and returns its identifier.
	HandStart(ctx context.Context, roomID string, startedAt time.Time) (string, error)

	// PlayerDeal records the hole cards dealt to one seat at hand start.
	PlayerDeal(ctx context.Context, handID string, seat int, playerID string, hole []deck.Card, stackBefore, stackAfter int64) error

	// Action appends one player action to a hand's record.
	Action(ctx context.Context, handID, playerID, kind string, amount int64) error

	// HandFinish closes a hand record with its outcome. winnerID is empty
	// when no winner could be determined.
	HandFinish(ctx context.Context, handID string, finishedAt time.Time, pot int64, board []deck.Card, winnerID string, result map[string]any) error
}
