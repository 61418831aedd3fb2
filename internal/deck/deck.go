package deck

import (
	rand "math/rand/v2"

	"pokerroomd/internal/randutil"
)

// Deck represents a deck of playing cards. Cards are consumed from the front
// and a deck is never refilled; each hand gets a fresh one.
type Deck struct {
	cards []Card
	rng   *rand.Rand
	fixed bool
}

// New creates an ordered 52-card deck whose shuffles are seeded from the
// operating system entropy pool.
func New() *Deck {
	return NewWithRand(randutil.NewCrypto())
}

// NewWithRand creates an ordered 52-card deck using the supplied RNG, for
// deterministic tests.
func NewWithRand(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	return d
}

// NewStacked creates a deck holding exactly the given cards in the given
// order, immune to Shuffle. Tests use it to script a known deal.
func NewStacked(cards ...Card) *Deck {
	return &Deck{
		cards: append([]Card(nil), cards...),
		fixed: true,
	}
}

// Shuffle applies a uniform random permutation to the remaining cards.
// Stacked decks keep their scripted order.
func (d *Deck) Shuffle() {
	if d.fixed {
		return
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the top card from the deck
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DealN deals n cards from the front of the deck, fewer if the deck runs out.
func (d *Deck) DealN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := make([]Card, n)
	for i := range cards {
		cards[i], _ = d.Deal()
	}
	return cards
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}
