package game

import (
	"time"

	"pokerroomd/internal/deck"
)

// Round labels the current betting round. The label is bookkeeping: streets
// advance only through Manager.AdvanceRound, and hand completion is driven by
// fold-out or an explicit finish, never by round-completion detection.
type Round string

const (
	RoundPreFlop Round = "pre-flop"
	RoundFlop    Round = "flop"
	RoundTurn    Round = "turn"
	RoundRiver   Round = "river"
)

// ActionKind identifies a player action inside a hand.
type ActionKind string

const (
	ActionFold  ActionKind = "fold"
	ActionCheck ActionKind = "check"
	ActionBet   ActionKind = "bet"
	ActionRaise ActionKind = "raise"
	ActionCall  ActionKind = "call"
	ActionAllIn ActionKind = "allin"
)

// HandState is one in-progress round of play. Exactly the seats occupied at
// hand start hold hole cards and a live flag; a seat without hole cards can
// never become current turn. The deck lives only as long as the hand.
type HandState struct {
	id          string
	startedAt   time.Time
	pot         int64
	board       []deck.Card
	holeCards   []*[2]deck.Card // per seat, nil when not dealt in
	currentTurn int             // seat index, -1 when nobody is to act
	round       Round
	inHand      []bool // false once folded
	deck        *deck.Deck
}

// liveCount returns the number of seats still contesting the hand.
func (h *HandState) liveCount() int {
	n := 0
	for _, in := range h.inHand {
		if in {
			n++
		}
	}
	return n
}

// nextLive returns the next live seat after from in circular order, skipping
// folded and never-dealt seats, or -1 when none remains.
func (h *HandState) nextLive(from int) int {
	n := len(h.inHand)
	if n == 0 {
		return -1
	}
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if h.inHand[idx] {
			return idx
		}
	}
	return -1
}

// showdownCards returns the board plus a seat's hole cards, the input to the
// best-of-seven evaluation.
func (h *HandState) showdownCards(seat int) []deck.Card {
	hole := h.holeCards[seat]
	cards := make([]deck.Card, 0, len(h.board)+2)
	cards = append(cards, h.board...)
	cards = append(cards, hole[0], hole[1])
	return cards
}
