package game

import "errors"

// Sentinel errors for state-machine violations and infrastructure failures.
// Client-caused violations (wrong turn, no active hand, unsupported action,
// full room, occupied seat) surface to the caller without mutating room
// state. Callers classify with errors.Is.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room full")
	ErrSeatOccupied      = errors.New("seat occupied")
	ErrPlayerNotSeated   = errors.New("player not seated")
	ErrNoActiveHand      = errors.New("no active hand")
	ErrHandAlreadyActive = errors.New("hand already active")
	ErrNotPlayersTurn    = errors.New("not player's turn")
	ErrUnsupportedAction = errors.New("unsupported action")

	// ErrLockUnavailable marks a room whose state may be corrupt (a panic
	// escaped while its lock was held). The room is quarantined: every
	// subsequent operation fails with this error.
	ErrLockUnavailable = errors.New("room lock unavailable")

	// ErrPersistence wraps storage failures surfaced through snapshots and
	// logs. It never rolls back an applied in-memory transition.
	ErrPersistence = errors.New("persistence failure")
)
