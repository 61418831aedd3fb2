package game

import "context"

// Turn timers auto-fold a player who sits on the turn too long. Cancellation
// is cooperative: every transition that supersedes a timer (a valid action, a
// street change, a new hand, hand finish) bumps the room's timer generation,
// and a firing callback that observes a stale generation stands down without
// touching the hand.

// scheduleTurnTimer arms a timer for the current turn seat. Called with the
// room lock held.
func (m *Manager) scheduleTurnTimer(r *RoomState) {
	if m.turnTimeout <= 0 || r.hand == nil || r.hand.currentTurn < 0 {
		return
	}
	r.timerGen++
	gen := r.timerGen
	roomID := r.id
	r.turnTimer = m.clock.AfterFunc(m.turnTimeout, func() {
		m.onTurnTimeout(roomID, gen)
	})
}

// cancelTurnTimer stops any outstanding timer and invalidates callbacks
// already in flight. Called with the room lock held.
func (m *Manager) cancelTurnTimer(r *RoomState) {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	r.timerGen++
}

// onTurnTimeout fires off the clock goroutine: re-checks under the room lock
// that it is still the timer for the current turn, then folds that seat.
func (m *Manager) onTurnTimeout(roomID string, gen uint64) {
	room, ok := m.room(roomID)
	if !ok {
		return
	}

	_ = m.withRoom(room, func(r *RoomState) error {
		if r.timerGen != gen {
			return nil // superseded by an action or a newer hand
		}
		h := r.hand
		if h == nil || h.currentTurn < 0 {
			return nil
		}

		seat := h.currentTurn
		playerID := ""
		if slot := r.seats[seat]; slot != nil {
			playerID = slot.PlayerID
		}
		m.logger.Info("turn timed out, auto-folding", "room", roomID, "hand", h.id, "seat", seat, "player", playerID)

		h.inHand[seat] = false
		m.persist("action", m.store.Action(context.Background(), h.id, playerID, string(ActionFold), 0))
		m.applyTurnAdvance(context.Background(), r, seat, playerID, ActionFold, 0, true)
		return nil
	})
}
