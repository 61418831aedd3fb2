// Package server is the WebSocket transport in front of the game core. It
// owns connection lifecycle, translates wire messages into core operations and
// fans the core's event stream out to the connections watching each room.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"pokerroomd/internal/game"
)

// Server represents the WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	manager     *game.Manager
}

// NewServer creates a new WebSocket server in front of the game manager.
func NewServer(addr string, logger *log.Logger, manager *game.Manager) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		manager:     manager,
	}
}

// Start starts the WebSocket server
func (s *Server) Start() error {
	go s.run()
	go s.pumpEvents()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// Stop stops the WebSocket server
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()
			if ok {
				// A dropped connection vacates its seat; there is no
				// reconnection grace.
				playerID := conn.GetPlayer()
				roomID := conn.GetRoom()
				if playerID != "" && roomID != "" {
					s.logger.Info("Cleaning up disconnected player", "player", playerID, "room", roomID)
					_ = s.manager.LeaveRoom(context.Background(), playerID, roomID)
				}
				_ = conn.Close()
			}
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// pumpEvents drains the core's event stream and fans each event out to the
// connections watching its room. Hand starts additionally deliver each seated
// player's hole cards on their own connection only.
func (s *Server) pumpEvents() {
	for {
		select {
		case evt := <-s.manager.Events():
			msg, err := NewMessage(MessageTypeGameEvent, evt)
			if err != nil {
				s.logger.Error("Failed to encode game event", "type", evt.Type, "error", err)
				continue
			}
			s.BroadcastToRoom(evt.RoomID, msg)

			if evt.Type == game.EventHandStarted {
				s.deliverHoleCards(evt.RoomID)
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// deliverHoleCards sends each seated player their private cards for the hand
// that just started.
func (s *Server) deliverHoleCards(roomID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.GetRoom() != roomID {
			continue
		}
		playerID := conn.GetPlayer()
		if playerID == "" {
			continue
		}
		handID, cards, err := s.manager.HoleCards(roomID, playerID)
		if err != nil {
			continue // spectator or not dealt in
		}
		snap, err := s.manager.Snapshot(roomID)
		if err != nil {
			continue
		}
		seat := -1
		for _, st := range snap.Seats {
			if st.PlayerID == playerID {
				seat = st.Seat
			}
		}
		msg, err := NewMessage(MessageTypeHoleCards, HoleCardsData{
			RoomID: roomID,
			HandID: handID,
			Seat:   seat,
			Cards:  cards,
		})
		if err != nil {
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to deliver hole cards", "player", playerID, "error", err)
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.manager)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// BroadcastToRoom sends a message to all connections watching a room.
func (s *Server) BroadcastToRoom(roomID string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.GetRoom() == roomID {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error("Failed to send message to client", "error", err, "player", conn.GetPlayer())
			} else {
				count++
			}
		}
	}

	s.logger.Debug("Broadcasted message to room", "roomId", roomID, "type", msg.Type, "recipients", count)
}

// SendToPlayer sends a message to a specific player
func (s *Server) SendToPlayer(playerID string, msg *Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.GetPlayer() == playerID {
			return conn.SendMessage(msg)
		}
	}

	return fmt.Errorf("player not found: %s", playerID)
}

// GetConnectedPlayers returns a list of connected player IDs
func (s *Server) GetConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []string
	for conn := range s.connections {
		if playerID := conn.GetPlayer(); playerID != "" {
			players = append(players, playerID)
		}
	}

	return players
}
