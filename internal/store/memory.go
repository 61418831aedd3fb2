package store

import (
	"context"
	"sync"
	"time"

	"pokerroomd/internal/deck"
	"pokerroomd/internal/handid"
)

// SeatRecord is one persisted seat claim.
type SeatRecord struct {
	Seat     int
	PlayerID string
	Chips    int64
}

// ActionRecord is one persisted player action.
type ActionRecord struct {
	PlayerID string
	Kind     string
	Amount   int64
}

// HandRecord accumulates the lifecycle of one hand.
type HandRecord struct {
	ID         string
	RoomID     string
	StartedAt  time.Time
	FinishedAt time.Time
	Finished   bool
	Pot        int64
	Board      []string
	WinnerID   string
	Result     map[string]any
	Deals      []DealRecord
	Actions    []ActionRecord
}

// DealRecord is one seat's hole cards at hand start.
type DealRecord struct {
	Seat        int
	PlayerID    string
	Hole        []string
	StackBefore int64
	StackAfter  int64
}

// Memory is an in-process Store used by tests and as the default backend for
// a standalone daemon. It keeps everything and makes it inspectable.
type Memory struct {
	mu    sync.Mutex
	seats map[string][]SeatRecord // room id -> current seats
	hands map[string]*HandRecord
	order []string // hand ids in creation order
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		seats: make(map[string][]SeatRecord),
		hands: make(map[string]*HandRecord),
	}
}

var _ Store = (*Memory)(nil)

// SeatClaim implements Store.
func (m *Memory) SeatClaim(_ context.Context, roomID string, seat int, playerID string, chips int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.seats[roomID]
	for i, r := range records {
		if r.Seat == seat {
			records[i] = SeatRecord{Seat: seat, PlayerID: playerID, Chips: chips}
			return nil
		}
	}
	m.seats[roomID] = append(records, SeatRecord{Seat: seat, PlayerID: playerID, Chips: chips})
	return nil
}

// SeatRemoval implements Store.
func (m *Memory) SeatRemoval(_ context.Context, roomID string, seat int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.seats[roomID]
	for i, r := range records {
		if r.Seat == seat {
			m.seats[roomID] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return nil
}

// HandStart implements Store.
func (m *Memory) HandStart(_ context.Context, roomID string, startedAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := handid.New()
	m.hands[id] = &HandRecord{ID: id, RoomID: roomID, StartedAt: startedAt}
	m.order = append(m.order, id)
	return id, nil
}

// PlayerDeal implements Store.
func (m *Memory) PlayerDeal(_ context.Context, handID string, seat int, playerID string, hole []deck.Card, stackBefore, stackAfter int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.hands[handID]; ok {
		h.Deals = append(h.Deals, DealRecord{
			Seat:        seat,
			PlayerID:    playerID,
			Hole:        deck.Strings(hole),
			StackBefore: stackBefore,
			StackAfter:  stackAfter,
		})
	}
	return nil
}

// Action implements Store.
func (m *Memory) Action(_ context.Context, handID, playerID, kind string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.hands[handID]; ok {
		h.Actions = append(h.Actions, ActionRecord{PlayerID: playerID, Kind: kind, Amount: amount})
	}
	return nil
}

// HandFinish implements Store.
func (m *Memory) HandFinish(_ context.Context, handID string, finishedAt time.Time, pot int64, board []deck.Card, winnerID string, result map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.hands[handID]; ok {
		h.FinishedAt = finishedAt
		h.Finished = true
		h.Pot = pot
		h.Board = deck.Strings(board)
		h.WinnerID = winnerID
		h.Result = result
	}
	return nil
}

// Seats returns a copy of the current seat records for a room.
func (m *Memory) Seats(roomID string) []SeatRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SeatRecord(nil), m.seats[roomID]...)
}

// Hand returns a copy of the record for a hand, if present.
func (m *Memory) Hand(handID string) (HandRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hands[handID]
	if !ok {
		return HandRecord{}, false
	}
	return *h, true
}

// Hands returns all hand ids in creation order.
func (m *Memory) Hands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}
