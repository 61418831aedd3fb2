package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"pokerroomd/internal/game"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	roomID    string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	manager   *game.Manager
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, manager *game.Manager) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		manager: manager,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SetRoom associates this connection with a room
func (c *Connection) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// GetRoom returns the associated room ID
func (c *Connection) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeLeaveRoom:
		var data LeaveRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse leave room data")
			return
		}
		c.handleLeaveRoom(data)

	case MessageTypeStartHand:
		var data StartHandData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse start hand data")
			return
		}
		c.handleStartHand(data)

	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse action data")
			return
		}
		c.handleAction(data)

	case MessageTypeAdvanceRound:
		var data AdvanceRoundData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse advance round data")
			return
		}
		c.handleAdvanceRound(data)

	case MessageTypeFinishHand:
		var data FinishHandData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse finish hand data")
			return
		}
		c.handleFinishHand(data)

	case MessageTypeRoomState:
		var data RoomStateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse room state data")
			return
		}
		c.handleRoomState(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

// sendGameError maps a core error onto the wire and sends it.
func (c *Connection) sendGameError(err error) {
	c.sendError(errorCode(err), err.Error())
}

// authenticated returns the player id, sending an error when none is set.
func (c *Connection) authenticated() (string, bool) {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return "", false
	}
	return playerID, true
}

func (c *Connection) handleAuth(data AuthData) {
	c.logger.Info("Auth request", "playerId", data.PlayerID)

	if data.PlayerID == "" {
		c.sendError("invalid_auth", "Player id required")
		return
	}

	c.SetPlayer(data.PlayerID)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: data.PlayerID,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	c.logger.Info("Join room request", "roomId", data.RoomID, "player", c.GetPlayer())

	playerID, ok := c.authenticated()
	if !ok {
		return
	}

	seat, err := c.manager.JoinRoom(c.ctx, playerID, data.RoomID, data.Seat)
	if err != nil {
		c.sendGameError(err)
		return
	}

	c.SetRoom(data.RoomID)

	response, _ := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		RoomID: data.RoomID,
		Seat:   seat,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleLeaveRoom(data LeaveRoomData) {
	c.logger.Info("Leave room request", "roomId", data.RoomID, "player", c.GetPlayer())

	playerID, ok := c.authenticated()
	if !ok {
		return
	}

	if err := c.manager.LeaveRoom(c.ctx, playerID, data.RoomID); err != nil {
		c.sendGameError(err)
		return
	}

	c.SetRoom("")

	response, _ := NewMessage(MessageTypeRoomLeft, RoomLeftData{RoomID: data.RoomID})
	_ = c.SendMessage(response)
}

func (c *Connection) handleStartHand(data StartHandData) {
	c.logger.Info("Start hand request", "roomId", data.RoomID, "player", c.GetPlayer())

	if _, ok := c.authenticated(); !ok {
		return
	}

	if _, err := c.manager.StartHand(c.ctx, data.RoomID); err != nil {
		c.sendGameError(err)
		return
	}
	// Hole cards are delivered per seat by the server's event pump.
}

func (c *Connection) handleAction(data ActionData) {
	c.logger.Info("Action request", "roomId", data.RoomID, "player", c.GetPlayer(), "kind", data.Kind, "amount", data.Amount)

	playerID, ok := c.authenticated()
	if !ok {
		return
	}

	err := c.manager.HandleAction(c.ctx, playerID, data.RoomID, game.ActionKind(data.Kind), data.Amount)
	if err != nil {
		c.sendGameError(err)
		return
	}
	// No response needed, the event pump broadcasts the applied action.
}

func (c *Connection) handleAdvanceRound(data AdvanceRoundData) {
	c.logger.Info("Advance round request", "roomId", data.RoomID, "player", c.GetPlayer())

	if _, ok := c.authenticated(); !ok {
		return
	}

	if err := c.manager.AdvanceRound(c.ctx, data.RoomID); err != nil {
		c.sendGameError(err)
	}
}

func (c *Connection) handleFinishHand(data FinishHandData) {
	c.logger.Info("Finish hand request", "roomId", data.RoomID, "player", c.GetPlayer())

	if _, ok := c.authenticated(); !ok {
		return
	}

	if err := c.manager.FinishHand(c.ctx, data.RoomID); err != nil {
		c.sendGameError(err)
	}
}

func (c *Connection) handleRoomState(data RoomStateData) {
	snap, err := c.manager.Snapshot(data.RoomID)
	if err != nil {
		c.sendGameError(err)
		return
	}

	response, _ := NewMessage(MessageTypeRoomSnapshot, snap)
	_ = c.SendMessage(response)
}
