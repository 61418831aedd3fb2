package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// String returns the single-letter representation of a suit
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Spades:
		return "S"
	default:
		return "?"
	}
}

// Rank represents a card rank. Aces are high (14); the wheel straight is the
// only place an ace counts low.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the single-letter representation of a rank
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Nine:
		return fmt.Sprintf("%d", int(r))
	case r == Ten:
		return "T"
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Card represents a playing card. Cards are immutable values compared by
// (rank, suit).
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the two-letter representation of a card (e.g. "AS", "TC").
// This is the form persisted in hand records.
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// ParseCard parses a two-character card like "AS" or "7d" (case insensitive).
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("card %q: want two characters", s)
	}
	s = strings.ToUpper(s)

	var rank Rank
	switch ch := s[0]; {
	case ch >= '2' && ch <= '9':
		rank = Rank(ch - '0')
	case ch == 'T':
		rank = Ten
	case ch == 'J':
		rank = Jack
	case ch == 'Q':
		rank = Queen
	case ch == 'K':
		rank = King
	case ch == 'A':
		rank = Ace
	default:
		return Card{}, fmt.Errorf("card %q: invalid rank %q", s, s[0])
	}

	var suit Suit
	switch s[1] {
	case 'C':
		suit = Clubs
	case 'D':
		suit = Diamonds
	case 'H':
		suit = Hearts
	case 'S':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("card %q: invalid suit %q", s, s[1])
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses a string of concatenated two-letter cards like "AsKsQsJsTs".
func ParseCards(s string) ([]Card, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("cards %q: odd length", s)
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards that panics on error, for fixtures and tests.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// Strings renders a card slice in persisted form, e.g. ["2C" "7D"].
func Strings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
