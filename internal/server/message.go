package server

import (
	"encoding/json"
	"errors"
	"time"

	"pokerroomd/internal/game"
)

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeAuth         MessageType = "auth"
	MessageTypeJoinRoom     MessageType = "join_room"
	MessageTypeLeaveRoom    MessageType = "leave_room"
	MessageTypeStartHand    MessageType = "start_hand"
	MessageTypeAction       MessageType = "action"
	MessageTypeAdvanceRound MessageType = "advance_round"
	MessageTypeFinishHand   MessageType = "finish_hand"
	MessageTypeRoomState    MessageType = "room_state"

	// Server to client messages
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeRoomJoined   MessageType = "room_joined"
	MessageTypeRoomLeft     MessageType = "room_left"
	MessageTypeHoleCards    MessageType = "hole_cards"
	MessageTypeRoomSnapshot MessageType = "room_snapshot"
	MessageTypeGameEvent    MessageType = "game_event"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	PlayerID string `json:"playerId"`
	Token    string `json:"token,omitempty"`
}

type JoinRoomData struct {
	RoomID string `json:"roomId"`
	Seat   *int   `json:"seat,omitempty"`
}

type LeaveRoomData struct {
	RoomID string `json:"roomId"`
}

type StartHandData struct {
	RoomID string `json:"roomId"`
}

type ActionData struct {
	RoomID string `json:"roomId"`
	Kind   string `json:"kind"`
	Amount int64  `json:"amount,omitempty"`
}

type AdvanceRoundData struct {
	RoomID string `json:"roomId"`
}

type FinishHandData struct {
	RoomID string `json:"roomId"`
}

type RoomStateData struct {
	RoomID string `json:"roomId"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type RoomJoinedData struct {
	RoomID string `json:"roomId"`
	Seat   int    `json:"seat"`
}

type RoomLeftData struct {
	RoomID string `json:"roomId"`
}

// HoleCardsData carries a seat's private deal. It is sent only to the
// connection owning the seat, never broadcast.
type HoleCardsData struct {
	RoomID string   `json:"roomId"`
	HandID string   `json:"handId"`
	Seat   int      `json:"seat"`
	Cards  []string `json:"cards"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorCode maps a game core error to a stable wire-level code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, game.ErrRoomFull):
		return "room_full"
	case errors.Is(err, game.ErrSeatOccupied):
		return "seat_occupied"
	case errors.Is(err, game.ErrPlayerNotSeated):
		return "player_not_seated"
	case errors.Is(err, game.ErrNoActiveHand):
		return "no_active_hand"
	case errors.Is(err, game.ErrHandAlreadyActive):
		return "hand_already_active"
	case errors.Is(err, game.ErrNotPlayersTurn):
		return "not_players_turn"
	case errors.Is(err, game.ErrUnsupportedAction):
		return "unsupported_action"
	case errors.Is(err, game.ErrLockUnavailable):
		return "room_unavailable"
	case errors.Is(err, game.ErrPersistence):
		return "persistence_failure"
	default:
		return "internal_error"
	}
}
