package deck

import "testing"

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "royal flush",
			input: "AsKsQsJsTs",
			expected: []Card{
				{Rank: Ace, Suit: Spades},
				{Rank: King, Suit: Spades},
				{Rank: Queen, Suit: Spades},
				{Rank: Jack, Suit: Spades},
				{Rank: Ten, Suit: Spades},
			},
		},
		{
			name:  "mixed suits",
			input: "AhKdQcJs9s",
			expected: []Card{
				{Rank: Ace, Suit: Hearts},
				{Rank: King, Suit: Diamonds},
				{Rank: Queen, Suit: Clubs},
				{Rank: Jack, Suit: Spades},
				{Rank: Nine, Suit: Spades},
			},
		},
		{
			name:  "case insensitive",
			input: "asKHqDjc",
			expected: []Card{
				{Rank: Ace, Suit: Spades},
				{Rank: King, Suit: Hearts},
				{Rank: Queen, Suit: Diamonds},
				{Rank: Jack, Suit: Clubs},
			},
		},
		{
			name:    "invalid rank",
			input:   "XsKs",
			wantErr: true,
		},
		{
			name:    "invalid suit",
			input:   "AsKx",
			wantErr: true,
		},
		{
			name:    "odd length",
			input:   "AsK",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := ParseCards(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCards(%q) expected error, got %v", tt.input, cards)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCards(%q) unexpected error: %v", tt.input, err)
			}
			if len(cards) != len(tt.expected) {
				t.Fatalf("ParseCards(%q) = %v, want %v", tt.input, cards, tt.expected)
			}
			for i := range cards {
				if cards[i] != tt.expected[i] {
					t.Errorf("card %d = %v, want %v", i, cards[i], tt.expected[i])
				}
			}
		})
	}
}

func TestCardString(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{Card{Rank: Ace, Suit: Clubs}, "AC"},
		{Card{Rank: Ten, Suit: Hearts}, "TH"},
		{Card{Rank: Two, Suit: Diamonds}, "2D"},
		{Card{Rank: King, Suit: Spades}, "KS"},
	}
	for _, tt := range tests {
		if got := tt.card.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.card, got, tt.want)
		}
	}
}

func TestCardRoundTrip(t *testing.T) {
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			c := NewCard(rank, suit)
			parsed, err := ParseCard(c.String())
			if err != nil {
				t.Fatalf("ParseCard(%q): %v", c.String(), err)
			}
			if parsed != c {
				t.Errorf("round trip %v -> %q -> %v", c, c.String(), parsed)
			}
		}
	}
}
