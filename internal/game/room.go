package game

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// PlayerSlot is an occupied seat: who sits there, their stack and whether
// their connection is currently live. Stacks are mutated only by the action
// processor while the room lock is held.
type PlayerSlot struct {
	PlayerID  string
	Seat      int
	Chips     int64
	Connected bool
}

// RoomState is the per-room aggregate: a fixed-capacity sparse seat list, the
// dealer position, at most one active hand and the cancellable handle for the
// current turn timer. All mutable fields are guarded by mu; the Manager is
// the only writer.
type RoomState struct {
	mu sync.RWMutex

	id       string
	capacity int
	seats    []*PlayerSlot // fixed length, nil = empty seat
	dealer   int           // -1 until the first hand finishes
	hand     *HandState

	turnTimer *quartz.Timer
	timerGen  uint64 // bumped whenever a timer is superseded
	poisoned  bool   // set when a panic escaped under the lock
}

func newRoomState(id string, capacity int) *RoomState {
	return &RoomState{
		id:       id,
		capacity: capacity,
		seats:    make([]*PlayerSlot, capacity),
		dealer:   -1,
	}
}

// ID returns the room identifier.
func (r *RoomState) ID() string { return r.id }

// seatOf returns the seat index held by a player, or -1.
func (r *RoomState) seatOf(playerID string) int {
	for i, s := range r.seats {
		if s != nil && s.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// firstToAct returns the first occupied seat after the dealer (wrapping), or
// the lowest occupied seat when no dealer is set, or -1 for an empty room.
func (r *RoomState) firstToAct() int {
	n := len(r.seats)
	if r.dealer >= 0 {
		for i := 1; i <= n; i++ {
			idx := (r.dealer + i) % n
			if r.seats[idx] != nil {
				return idx
			}
		}
		return -1
	}
	for i, s := range r.seats {
		if s != nil {
			return i
		}
	}
	return -1
}

// nextOccupied returns the next occupied seat after from (wrapping), or -1.
func (r *RoomState) nextOccupied(from int) int {
	n := len(r.seats)
	if from < 0 {
		from = n - 1
	}
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if r.seats[idx] != nil {
			return idx
		}
	}
	return -1
}

// SeatSnapshot is the public view of one occupied seat.
type SeatSnapshot struct {
	Seat      int    `json:"seat"`
	PlayerID  string `json:"player_id"`
	Chips     int64  `json:"chips"`
	Connected bool   `json:"connected"`
	InHand    bool   `json:"in_hand"`
}

// HandSnapshot is the public view of the active hand. Hole cards are
// deliberately absent: they are delivered only to their owner at deal time.
type HandSnapshot struct {
	HandID      string    `json:"hand_id"`
	StartedAt   time.Time `json:"started_at"`
	Pot         int64     `json:"pot"`
	Board       []string  `json:"board"`
	Round       Round     `json:"round"`
	CurrentTurn int       `json:"current_turn"`
}

// RoomSnapshot is a read-only view of a room taken under its shared lock.
type RoomSnapshot struct {
	RoomID          string         `json:"room_id"`
	Capacity        int            `json:"capacity"`
	Dealer          int            `json:"dealer"`
	Seats           []SeatSnapshot `json:"seats"`
	Hand            *HandSnapshot  `json:"hand,omitempty"`
	PersistFailures uint64         `json:"persist_failures"`
}
