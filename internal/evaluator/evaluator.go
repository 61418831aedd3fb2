// Package evaluator ranks poker hands. EvaluateFive classifies a single
// five-card hand; BestOfSeven searches every five-card subset of up to seven
// cards and returns the strongest, which is what a showdown needs given two
// hole cards and the board.
package evaluator

import (
	"sort"

	"pokerroomd/internal/deck"
)

// EvaluateFive classifies exactly five cards. It panics on any other input
// length; callers hold the five-card invariant.
func EvaluateFive(cards []deck.Card) HandRank {
	if len(cards) != 5 {
		panic("evaluator: EvaluateFive needs exactly five cards")
	}

	ranks := sortedRanksDesc(cards)

	var rankCount [15]int
	for _, r := range ranks {
		rankCount[r]++
	}
	var suitCount [4]int
	for _, c := range cards {
		suitCount[c.Suit]++
	}

	isFlush := false
	for _, n := range suitCount {
		if n == 5 {
			isFlush = true
		}
	}

	isStraight, straightTop := detectStraight(ranks)

	// Frequency groups ordered by count then rank, both descending.
	type group struct {
		count int
		rank  deck.Rank
	}
	var groups []group
	for r := deck.Ace; r >= deck.Two; r-- {
		if n := rankCount[r]; n > 0 {
			groups = append(groups, group{count: n, rank: r})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})

	switch {
	case isFlush && isStraight:
		return HandRank{Category: StraightFlush, Tiebreakers: []deck.Rank{straightTop}}

	case groups[0].count == 4:
		quad := groups[0].rank
		kicker := groups[1].rank
		return HandRank{Category: FourOfAKind, Tiebreakers: []deck.Rank{quad, kicker}}

	case groups[0].count == 3 && len(groups) >= 2 && groups[1].count == 2:
		return HandRank{Category: FullHouse, Tiebreakers: []deck.Rank{groups[0].rank, groups[1].rank}}

	case isFlush:
		return HandRank{Category: Flush, Tiebreakers: ranks}

	case isStraight:
		return HandRank{Category: Straight, Tiebreakers: []deck.Rank{straightTop}}

	case groups[0].count == 3:
		trips := groups[0].rank
		kickers := filterRanks(ranks, trips)
		return HandRank{Category: ThreeOfAKind, Tiebreakers: append([]deck.Rank{trips}, kickers...)}

	case groups[0].count == 2 && len(groups) >= 2 && groups[1].count == 2:
		high, low := groups[0].rank, groups[1].rank
		kicker := groups[2].rank
		return HandRank{Category: TwoPair, Tiebreakers: []deck.Rank{high, low, kicker}}

	case groups[0].count == 2:
		pair := groups[0].rank
		kickers := filterRanks(ranks, pair)
		return HandRank{Category: OnePair, Tiebreakers: append([]deck.Rank{pair}, kickers...)}

	default:
		return HandRank{Category: HighCard, Tiebreakers: ranks}
	}
}

// BestOfSeven returns the strongest five-card rank available from the given
// cards (two hole cards plus up to five board cards). With seven cards that
// is a search over all C(7,5)=21 subsets. A showdown forced before the flop
// leaves fewer than five cards; those degrade to a high-card rank over the
// available cards rather than failing.
func BestOfSeven(cards []deck.Card) HandRank {
	n := len(cards)
	if n < 5 {
		return HandRank{Category: HighCard, Tiebreakers: sortedRanksDesc(cards)}
	}
	if n == 5 {
		return EvaluateFive(cards)
	}

	var best HandRank
	first := true
	hand := make([]deck.Card, 5)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						hand[0], hand[1], hand[2], hand[3], hand[4] =
							cards[a], cards[b], cards[c], cards[d], cards[e]
						rank := EvaluateFive(hand)
						if first || best.Less(rank) {
							best = rank
							first = false
						}
					}
				}
			}
		}
	}
	return best
}

// detectStraight finds a run of five consecutive ranks, treating the ace as
// low for the wheel (A-2-3-4-5 is a straight topped by the five).
func detectStraight(ranksDesc []deck.Rank) (bool, deck.Rank) {
	unique := ranksDesc[:0:0]
	for i, r := range ranksDesc {
		if i == 0 || ranksDesc[i-1] != r {
			unique = append(unique, r)
		}
	}
	if len(unique) > 0 && unique[0] == deck.Ace {
		unique = append(unique, 1) // ace counts low only here
	}
	for i := 0; i+4 < len(unique); i++ {
		run := true
		for j := 0; j < 4; j++ {
			if unique[i+j] != unique[i+j+1]+1 {
				run = false
				break
			}
		}
		if run {
			return true, unique[i]
		}
	}
	return false, 0
}

func sortedRanksDesc(cards []deck.Card) []deck.Rank {
	ranks := make([]deck.Rank, len(cards))
	for i, c := range cards {
		ranks[i] = c.Rank
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })
	return ranks
}

func filterRanks(ranksDesc []deck.Rank, exclude deck.Rank) []deck.Rank {
	out := make([]deck.Rank, 0, len(ranksDesc))
	for _, r := range ranksDesc {
		if r != exclude {
			out = append(out, r)
		}
	}
	return out
}
