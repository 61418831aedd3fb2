package game

import "time"

// EventType tags an outgoing notification.
type EventType string

const (
	EventSeatClaimed   EventType = "seat_claimed"
	EventSeatFreed     EventType = "seat_freed"
	EventHandStarted   EventType = "hand_started"
	EventActionApplied EventType = "action_applied"
	EventRoundAdvanced EventType = "round_advanced"
	EventHandFinished  EventType = "hand_finished"
)

// OutgoingEvent is produced on every state transition for delivery to
// connected clients. Emission never blocks the core: events go through a
// buffered channel drained by the transport layer, and are dropped (with a
// log line) if the drain falls behind.
type OutgoingEvent struct {
	Type      EventType `json:"type"`
	RoomID    string    `json:"room_id"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emitted_at"`
}

// SeatClaimedPayload announces a successful join.
type SeatClaimedPayload struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
	Chips    int64  `json:"chips"`
}

// SeatFreedPayload announces a leave.
type SeatFreedPayload struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
}

// HandStartedPayload announces a new hand and who was dealt in.
type HandStartedPayload struct {
	HandID      string `json:"hand_id"`
	Round       Round  `json:"round"`
	CurrentTurn int    `json:"current_turn"`
	Seats       []int  `json:"seats"`
}

// ActionAppliedPayload announces one applied action and the resulting turn.
type ActionAppliedPayload struct {
	HandID   string     `json:"hand_id"`
	Seat     int        `json:"seat"`
	PlayerID string     `json:"player_id"`
	Kind     ActionKind `json:"kind"`
	Amount   int64      `json:"amount"`
	Pot      int64      `json:"pot"`
	NextTurn int        `json:"next_turn"`
	TimedOut bool       `json:"timed_out,omitempty"`
}

// RoundAdvancedPayload announces a street change and the new board.
type RoundAdvancedPayload struct {
	HandID      string   `json:"hand_id"`
	Round       Round    `json:"round"`
	Board       []string `json:"board"`
	CurrentTurn int      `json:"current_turn"`
}

// HandFinishedPayload announces the hand outcome. SplitCandidates counts the
// seats tied for best rank; the pot still goes whole to the first of them.
type HandFinishedPayload struct {
	HandID          string   `json:"hand_id"`
	Pot             int64    `json:"pot"`
	WinnerSeat      int      `json:"winner_seat"`
	WinnerID        string   `json:"winner_id,omitempty"`
	WinningRank     string   `json:"winning_rank,omitempty"`
	Board           []string `json:"board"`
	Reason          string   `json:"reason"`
	SplitCandidates int      `json:"split_candidates"`
}
