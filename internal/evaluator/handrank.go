package evaluator

import (
	"strings"

	"pokerroomd/internal/deck"
)

// Category classifies a five-card hand. Higher is stronger.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable category name
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandRank describes the strength of one five-card hand: a category plus a
// tiebreaker sequence in descending order of significance. The length and
// meaning of the tiebreakers depend on the category (quad rank then kicker for
// four of a kind, all five ranks for a flush, and so on).
//
// The ordering is total: two hands compare equal only when category and the
// full tiebreaker sequence match.
type HandRank struct {
	Category    Category
	Tiebreakers []deck.Rank
}

// Compare returns -1 if h is weaker than other, 0 if equal, 1 if stronger.
func (h HandRank) Compare(other HandRank) int {
	if h.Category != other.Category {
		if h.Category < other.Category {
			return -1
		}
		return 1
	}
	n := len(h.Tiebreakers)
	if len(other.Tiebreakers) < n {
		n = len(other.Tiebreakers)
	}
	for i := 0; i < n; i++ {
		if h.Tiebreakers[i] != other.Tiebreakers[i] {
			if h.Tiebreakers[i] < other.Tiebreakers[i] {
				return -1
			}
			return 1
		}
	}
	// Same category always means same tiebreaker length for five-card hands;
	// short ranks only occur for degenerate sub-five showdowns.
	switch {
	case len(h.Tiebreakers) < len(other.Tiebreakers):
		return -1
	case len(h.Tiebreakers) > len(other.Tiebreakers):
		return 1
	}
	return 0
}

// Less reports whether h is strictly weaker than other.
func (h HandRank) Less(other HandRank) bool {
	return h.Compare(other) < 0
}

// String renders the rank for logs and result records, e.g.
// "Full House (K,4)".
func (h HandRank) String() string {
	if len(h.Tiebreakers) == 0 {
		return h.Category.String()
	}
	parts := make([]string, len(h.Tiebreakers))
	for i, r := range h.Tiebreakers {
		parts[i] = r.String()
	}
	return h.Category.String() + " (" + strings.Join(parts, ",") + ")"
}
