// Package game implements the room/hand state machine behind the card-game
// service: a registry of independently locked rooms, seat management, one
// hand at a time per room, turn-ordered action processing and best-of-seven
// showdowns.
package game

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"pokerroomd/internal/deck"
	"pokerroomd/internal/evaluator"
	"pokerroomd/internal/handid"
	"pokerroomd/internal/store"
)

const (
	defaultCapacity    = 6
	defaultChips       = 1000
	defaultTurnTimeout = 30 * time.Second
	defaultEventBuffer = 256
)

// Manager owns the room registry and is the sole writer of persisted room,
// hand and action records. Each room carries its own lock; no operation ever
// holds two room locks, and the registry lock guards only map insertion and
// lookup.
type Manager struct {
	logger        *log.Logger
	store         store.Store
	clock         quartz.Clock
	turnTimeout   time.Duration
	startingChips int64
	capacity      int
	newDeck       func() *deck.Deck

	mu    sync.RWMutex
	rooms map[string]*RoomState

	events          chan OutgoingEvent
	persistFailures atomic.Uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock injects a clock, letting tests drive turn timers.
func WithClock(c quartz.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithTurnTimeout sets how long a player may hold the turn before being
// auto-folded. Zero disables turn timers.
func WithTurnTimeout(d time.Duration) Option {
	return func(m *Manager) { m.turnTimeout = d }
}

// WithStartingChips sets the stack a player receives on joining.
func WithStartingChips(n int64) Option {
	return func(m *Manager) { m.startingChips = n }
}

// WithDefaultCapacity sets the seat count used when a room is created
// implicitly by a join.
func WithDefaultCapacity(n int) Option {
	return func(m *Manager) { m.capacity = n }
}

// WithDeckFactory injects deck construction, letting tests stack the deal.
func WithDeckFactory(f func() *deck.Deck) Option {
	return func(m *Manager) { m.newDeck = f }
}

// New creates a Manager persisting through st.
func New(logger *log.Logger, st store.Store, opts ...Option) *Manager {
	m := &Manager{
		logger:        logger.WithPrefix("game"),
		store:         st,
		clock:         quartz.NewReal(),
		turnTimeout:   defaultTurnTimeout,
		startingChips: defaultChips,
		capacity:      defaultCapacity,
		newDeck:       deck.New,
		rooms:         make(map[string]*RoomState),
		events:        make(chan OutgoingEvent, defaultEventBuffer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the outgoing notification stream. The transport layer
// drains it; the core never blocks on delivery.
func (m *Manager) Events() <-chan OutgoingEvent {
	return m.events
}

// PersistFailures returns how many storage writes have failed since start.
func (m *Manager) PersistFailures() uint64 {
	return m.persistFailures.Load()
}

// EnsureRoom idempotently creates room state. Concurrent callers for the
// same id observe exactly one instance.
func (m *Manager) EnsureRoom(roomID string, capacity int) *RoomState {
	m.mu.RLock()
	room, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if ok {
		return room
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok = m.rooms[roomID]; ok {
		return room
	}
	if capacity <= 0 {
		capacity = m.capacity
	}
	room = newRoomState(roomID, capacity)
	m.rooms[roomID] = room
	m.logger.Info("room created", "room", roomID, "capacity", capacity)
	return room
}

// RoomIDs returns the ids of all known rooms.
func (m *Manager) RoomIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) room(roomID string) (*RoomState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	return room, ok
}

// withRoom runs fn with the room's exclusive lock held. A panic escaping fn
// quarantines the room, mirroring lock poisoning: the state may be torn, so
// every later operation fails with ErrLockUnavailable until the room is
// recreated.
func (m *Manager) withRoom(room *RoomState, fn func(*RoomState) error) (err error) {
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.poisoned {
		return fmt.Errorf("room %s: %w", room.id, ErrLockUnavailable)
	}
	defer func() {
		if p := recover(); p != nil {
			room.poisoned = true
			m.logger.Error("panic under room lock, quarantining room", "room", room.id, "panic", p)
			err = fmt.Errorf("room %s: %v: %w", room.id, p, ErrLockUnavailable)
		}
	}()
	return fn(room)
}

// JoinRoom seats a player: the requested seat when free, otherwise the lowest
// free seat. The room is created on demand with the default capacity. Returns
// the claimed seat index.
func (m *Manager) JoinRoom(ctx context.Context, playerID, roomID string, requestedSeat *int) (int, error) {
	room := m.EnsureRoom(roomID, 0)

	seat := -1
	err := m.withRoom(room, func(r *RoomState) error {
		if existing := r.seatOf(playerID); existing >= 0 {
			return fmt.Errorf("player %s already holds seat %d: %w", playerID, existing, ErrSeatOccupied)
		}

		if requestedSeat != nil {
			idx := *requestedSeat
			if idx >= 0 && idx < len(r.seats) && r.seats[idx] == nil {
				seat = idx
			}
			// An occupied requested seat falls through to auto-assignment.
		}
		if seat < 0 {
			for i, s := range r.seats {
				if s == nil {
					seat = i
					break
				}
			}
		}
		if seat < 0 {
			return fmt.Errorf("room %s: %w", roomID, ErrRoomFull)
		}

		r.seats[seat] = &PlayerSlot{
			PlayerID:  playerID,
			Seat:      seat,
			Chips:     m.startingChips,
			Connected: true,
		}
		m.persist("seat claim", m.store.SeatClaim(ctx, roomID, seat, playerID, m.startingChips))
		m.emit(EventSeatClaimed, roomID, SeatClaimedPayload{Seat: seat, PlayerID: playerID, Chips: m.startingChips})
		m.logger.Info("player seated", "room", roomID, "player", playerID, "seat", seat)
		return nil
	})
	if err != nil {
		return -1, err
	}
	return seat, nil
}

// LeaveRoom frees the player's seat. It is a no-op when the room is unknown
// or the player holds no seat, and it never alters an in-progress hand's
// snapshot of who was dealt in.
func (m *Manager) LeaveRoom(ctx context.Context, playerID, roomID string) error {
	room, ok := m.room(roomID)
	if !ok {
		return nil
	}
	return m.withRoom(room, func(r *RoomState) error {
		seat := r.seatOf(playerID)
		if seat < 0 {
			return nil
		}
		m.persist("seat removal", m.store.SeatRemoval(ctx, roomID, seat))
		r.seats[seat] = nil
		m.emit(EventSeatFreed, roomID, SeatFreedPayload{Seat: seat, PlayerID: playerID})
		m.logger.Info("player left", "room", roomID, "player", playerID, "seat", seat)
		return nil
	})
}

// StartHand begins a new hand: fresh shuffled deck, two hole cards per
// occupied seat, empty pot and board, first-to-act after the dealer. Fails
// with ErrHandAlreadyActive while a hand is running; a running hand is never
// silently overwritten.
func (m *Manager) StartHand(ctx context.Context, roomID string) (string, error) {
	room, ok := m.room(roomID)
	if !ok {
		return "", fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}

	var handID string
	err := m.withRoom(room, func(r *RoomState) error {
		if r.hand != nil {
			return fmt.Errorf("room %s: %w", roomID, ErrHandAlreadyActive)
		}
		m.cancelTurnTimer(r)

		d := m.newDeck()
		d.Shuffle()

		startedAt := m.clock.Now()
		id, perr := m.store.HandStart(ctx, roomID, startedAt)
		if perr != nil {
			// The hand still starts; storage gets no record but memory
			// stays consistent under a locally generated id.
			m.persist("hand start", perr)
			id = handid.New()
		}
		handID = id

		holeCards := make([]*[2]deck.Card, len(r.seats))
		inHand := make([]bool, len(r.seats))
		dealtSeats := make([]int, 0, len(r.seats))
		for i, slot := range r.seats {
			if slot == nil {
				continue
			}
			cards := d.DealN(2)
			holeCards[i] = &[2]deck.Card{cards[0], cards[1]}
			inHand[i] = true
			dealtSeats = append(dealtSeats, i)
			m.persist("player deal", m.store.PlayerDeal(ctx, id, i, slot.PlayerID, cards, slot.Chips, slot.Chips))
		}

		r.hand = &HandState{
			id:          id,
			startedAt:   startedAt,
			pot:         0,
			board:       nil,
			holeCards:   holeCards,
			currentTurn: r.firstToAct(),
			round:       RoundPreFlop,
			inHand:      inHand,
			deck:        d,
		}

		m.emit(EventHandStarted, roomID, HandStartedPayload{
			HandID:      id,
			Round:       RoundPreFlop,
			CurrentTurn: r.hand.currentTurn,
			Seats:       dealtSeats,
		})
		m.logger.Info("hand started", "room", roomID, "hand", id, "seats", len(dealtSeats), "firstToAct", r.hand.currentTurn)

		m.scheduleTurnTimer(r)
		return nil
	})
	if err != nil {
		return "", err
	}
	return handID, nil
}

// HandleAction applies one player action to the active hand. The action is
// persisted before the turn advances; a valid action cancels the outstanding
// turn timer. When fewer than two live seats remain the hand finishes
// immediately.
func (m *Manager) HandleAction(ctx context.Context, playerID, roomID string, kind ActionKind, amount int64) error {
	room, ok := m.room(roomID)
	if !ok {
		return fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	return m.withRoom(room, func(r *RoomState) error {
		seat := r.seatOf(playerID)
		if seat < 0 {
			return fmt.Errorf("player %s in room %s: %w", playerID, roomID, ErrPlayerNotSeated)
		}
		h := r.hand
		if h == nil {
			return fmt.Errorf("room %s: %w", roomID, ErrNoActiveHand)
		}
		if h.currentTurn != seat {
			return fmt.Errorf("seat %d (turn is %d): %w", seat, h.currentTurn, ErrNotPlayersTurn)
		}

		slot := r.seats[seat]
		switch kind {
		case ActionFold:
			h.inHand[seat] = false
		case ActionCheck:
			// No chip movement.
		case ActionBet, ActionRaise, ActionCall:
			slot.Chips -= amount
			h.pot += amount
		case ActionAllIn:
			amount = slot.Chips
			slot.Chips = 0
			h.pot += amount
		default:
			return fmt.Errorf("action %q: %w", kind, ErrUnsupportedAction)
		}

		m.persist("action", m.store.Action(ctx, h.id, playerID, string(kind), amount))
		m.applyTurnAdvance(ctx, r, seat, playerID, kind, amount, false)
		return nil
	})
}

// applyTurnAdvance runs the shared post-action path: cancel the turn timer,
// move the turn to the next live seat, emit the action event, then either
// finish the hand (fewer than two live seats) or arm the next timer.
// Called with the room lock held.
func (m *Manager) applyTurnAdvance(ctx context.Context, r *RoomState, seat int, playerID string, kind ActionKind, amount int64, timedOut bool) {
	h := r.hand
	m.cancelTurnTimer(r)
	h.currentTurn = h.nextLive(seat)

	m.emit(EventActionApplied, r.id, ActionAppliedPayload{
		HandID:   h.id,
		Seat:     seat,
		PlayerID: playerID,
		Kind:     kind,
		Amount:   amount,
		Pot:      h.pot,
		NextTurn: h.currentTurn,
		TimedOut: timedOut,
	})
	m.logger.Debug("action applied", "room", r.id, "hand", h.id, "seat", seat, "kind", kind, "amount", amount, "pot", h.pot)

	if h.liveCount() <= 1 {
		m.finishHand(ctx, r)
		return
	}
	m.scheduleTurnTimer(r)
}

// AdvanceRound deals the next street (flop, turn or river), relabels the
// round and restarts action at the first live seat after the dealer. When to
// advance is the caller's decision; the core performs no bet-matching
// completion detection.
func (m *Manager) AdvanceRound(ctx context.Context, roomID string) error {
	room, ok := m.room(roomID)
	if !ok {
		return fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	return m.withRoom(room, func(r *RoomState) error {
		h := r.hand
		if h == nil {
			return fmt.Errorf("room %s: %w", roomID, ErrNoActiveHand)
		}

		switch h.round {
		case RoundPreFlop:
			h.board = append(h.board, h.deck.DealN(3)...)
			h.round = RoundFlop
		case RoundFlop:
			h.board = append(h.board, h.deck.DealN(1)...)
			h.round = RoundTurn
		case RoundTurn:
			h.board = append(h.board, h.deck.DealN(1)...)
			h.round = RoundRiver
		default:
			return fmt.Errorf("no street after %s; finish the hand", h.round)
		}

		m.cancelTurnTimer(r)
		h.currentTurn = m.firstLiveAfterDealer(r)

		m.emit(EventRoundAdvanced, roomID, RoundAdvancedPayload{
			HandID:      h.id,
			Round:       h.round,
			Board:       deck.Strings(h.board),
			CurrentTurn: h.currentTurn,
		})
		m.logger.Info("round advanced", "room", roomID, "hand", h.id, "round", h.round, "board", deck.Strings(h.board))

		m.scheduleTurnTimer(r)
		return nil
	})
}

func (m *Manager) firstLiveAfterDealer(r *RoomState) int {
	h := r.hand
	from := r.dealer
	if from < 0 {
		from = len(r.seats) - 1
	}
	return h.nextLive(from)
}

// FinishHand resolves the active hand: every live seat's best five-card rank
// from hole cards plus board is compared, the first maximal entrant takes the
// whole pot, the dealer rotates, and the room returns to idle.
func (m *Manager) FinishHand(ctx context.Context, roomID string) error {
	room, ok := m.room(roomID)
	if !ok {
		return fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	return m.withRoom(room, func(r *RoomState) error {
		if r.hand == nil {
			return fmt.Errorf("room %s: %w", roomID, ErrNoActiveHand)
		}
		m.finishHand(ctx, r)
		return nil
	})
}

// finishHand implements the terminal transition. Called with the room lock
// held and a non-nil active hand.
func (m *Manager) finishHand(ctx context.Context, r *RoomState) {
	h := r.hand
	m.cancelTurnTimer(r)

	reason := "showdown"
	if h.liveCount() <= 1 {
		reason = "fold-out"
	}

	winnerSeat := -1
	var best evaluator.HandRank
	splitCandidates := 0
	for i, live := range h.inHand {
		if !live || h.holeCards[i] == nil {
			continue
		}
		rank := evaluator.BestOfSeven(h.showdownCards(i))
		switch {
		case winnerSeat < 0 || best.Less(rank):
			winnerSeat = i
			best = rank
			splitCandidates = 1
		case rank.Compare(best) == 0:
			splitCandidates++
		}
	}

	winnerID := ""
	winningRank := ""
	if winnerSeat >= 0 {
		winningRank = best.String()
		// The winning seat may have been vacated mid-hand; the pot is
		// credited only to a still-present slot.
		if slot := r.seats[winnerSeat]; slot != nil {
			slot.Chips += h.pot
			winnerID = slot.PlayerID
		}
	}

	result := map[string]any{
		"pot":              h.pot,
		"reason":           reason,
		"split_candidates": splitCandidates,
	}
	if winningRank != "" {
		result["winning_rank"] = winningRank
	}
	m.persist("hand finish", m.store.HandFinish(ctx, h.id, m.clock.Now(), h.pot, h.board, winnerID, result))

	// Rotate the dealer so first-to-act moves between hands.
	r.dealer = r.nextOccupied(r.dealer)
	board := deck.Strings(h.board)
	r.hand = nil // the deck dies with the hand

	m.emit(EventHandFinished, r.id, HandFinishedPayload{
		HandID:          h.id,
		Pot:             h.pot,
		WinnerSeat:      winnerSeat,
		WinnerID:        winnerID,
		WinningRank:     winningRank,
		Board:           board,
		Reason:          reason,
		SplitCandidates: splitCandidates,
	})
	m.logger.Info("hand finished", "room", r.id, "hand", h.id, "pot", h.pot, "winnerSeat", winnerSeat, "winner", winnerID, "rank", winningRank, "reason", reason)
}

// HoleCards returns the active hand's id and the hole cards dealt to a
// player. The transport uses it to deliver each seat's cards privately;
// snapshots never carry them.
func (m *Manager) HoleCards(roomID, playerID string) (handID string, cards []string, err error) {
	room, ok := m.room(roomID)
	if !ok {
		return "", nil, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}

	room.mu.RLock()
	defer room.mu.RUnlock()
	if room.poisoned {
		return "", nil, fmt.Errorf("room %s: %w", roomID, ErrLockUnavailable)
	}
	seat := room.seatOf(playerID)
	if seat < 0 {
		return "", nil, fmt.Errorf("player %s in room %s: %w", playerID, roomID, ErrPlayerNotSeated)
	}
	h := room.hand
	if h == nil {
		return "", nil, fmt.Errorf("room %s: %w", roomID, ErrNoActiveHand)
	}
	hole := h.holeCards[seat]
	if hole == nil {
		return "", nil, fmt.Errorf("seat %d dealt no cards: %w", seat, ErrPlayerNotSeated)
	}
	return h.id, deck.Strings(hole[:]), nil
}

// Snapshot returns a read-only view of a room under its shared lock.
func (m *Manager) Snapshot(roomID string) (RoomSnapshot, error) {
	room, ok := m.room(roomID)
	if !ok {
		return RoomSnapshot{}, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}

	room.mu.RLock()
	defer room.mu.RUnlock()
	if room.poisoned {
		return RoomSnapshot{}, fmt.Errorf("room %s: %w", roomID, ErrLockUnavailable)
	}

	snap := RoomSnapshot{
		RoomID:          room.id,
		Capacity:        room.capacity,
		Dealer:          room.dealer,
		PersistFailures: m.persistFailures.Load(),
	}
	for i, slot := range room.seats {
		if slot == nil {
			continue
		}
		inHand := room.hand != nil && room.hand.inHand[i]
		snap.Seats = append(snap.Seats, SeatSnapshot{
			Seat:      i,
			PlayerID:  slot.PlayerID,
			Chips:     slot.Chips,
			Connected: slot.Connected,
			InHand:    inHand,
		})
	}
	if h := room.hand; h != nil {
		snap.Hand = &HandSnapshot{
			HandID:      h.id,
			StartedAt:   h.startedAt,
			Pot:         h.pot,
			Board:       deck.Strings(h.board),
			Round:       h.round,
			CurrentTurn: h.currentTurn,
		}
	}
	return snap, nil
}

// persist logs and counts a storage failure. In-memory state is already
// applied by the time persistence runs and is never rolled back.
func (m *Manager) persist(op string, err error) {
	if err != nil {
		m.persistFailures.Add(1)
		m.logger.Error("persistence failure", "op", op, "error", err)
	}
}

// emit queues an outgoing event without ever blocking a room lock holder.
func (m *Manager) emit(t EventType, roomID string, payload any) {
	evt := OutgoingEvent{
		Type:      t,
		RoomID:    roomID,
		Payload:   payload,
		EmittedAt: m.clock.Now(),
	}
	select {
	case m.events <- evt:
	default:
		m.logger.Warn("event buffer full, dropping event", "type", t, "room", roomID)
	}
}
