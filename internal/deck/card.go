package deck

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

var suitNames = [...]string{"hearts", "diamonds", "clubs", "spades"}

// Suits returns all four suits in a fixed order
func Suits() []Suit {
	return []Suit{Hearts, Diamonds, Clubs, Spades}
}

// String returns the wire name of a suit ("hearts", "spades", ...)
func (s Suit) String() string {
	if s < Hearts || s > Spades {
		return "?"
	}
	return suitNames[s]
}

// Symbol returns the single-glyph form used in logs (e.g. "♥")
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// MarshalJSON encodes the suit as its wire name
func (s Suit) MarshalJSON() ([]byte, error) {
	if s < Hearts || s > Spades {
		return nil, fmt.Errorf("invalid suit %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a suit from its wire name
func (s *Suit) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range suitNames {
		if n == name {
			*s = Suit(i)
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", name)
}

// Rank represents a card rank. The numeric value is the rank's position in
// ascending order with aces low: Ace=1 … King=13. Run validation relies on
// this ordering.
type Rank int

const (
	Ace Rank = iota + 1
	Two
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
)

var rankNames = [...]string{
	Ace:   "ace",
	Two:   "two",
	Three: "three",
	Four:  "four",
	Five:  "five",
	Six:   "six",
	Seven: "seven",
	Eight: "eight",
	Nine:  "nine",
	Ten:   "ten",
	Jack:  "jack",
	Queen: "queen",
	King:  "king",
}

// Ranks returns all thirteen ranks in ascending order, aces low
func Ranks() []Rank {
	ranks := make([]Rank, 0, 13)
	for r := Ace; r <= King; r++ {
		ranks = append(ranks, r)
	}
	return ranks
}

// String returns the wire name of a rank ("ace", "two", ...)
func (r Rank) String() string {
	if r < Ace || r > King {
		return "?"
	}
	return rankNames[r]
}

// Short returns the single-character form used in logs ("A", "2", ..., "K")
func (r Rank) Short() string {
	switch r {
	case Ace:
		return "A"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		if r >= Two && r <= Nine {
			return fmt.Sprintf("%d", int(r))
		}
		return "?"
	}
}

// Points returns the penalty value of an unmatched card of this rank:
// aces 15, face cards 10, everything else face value. A card counts by rank
// alone, never by suit. Wild cards left unmatched also count by this value
// (wild ranks are always 3..king, so the ace case never applies to them).
func (r Rank) Points() int {
	switch {
	case r == Ace:
		return 15
	case r >= Jack:
		return 10
	default:
		return int(r)
	}
}

// MarshalJSON encodes the rank as its wire name
func (r Rank) MarshalJSON() ([]byte, error) {
	if r < Ace || r > King {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a rank from its wire name
func (r *Rank) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range rankNames {
		if n == name {
			*r = Rank(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rank %q", name)
}

// Card represents a playing card. ID is unique within one composite deck so
// duplicate rank/suit pairs from multiple decks stay distinguishable; clients
// select cards by ID.
type Card struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
}

// NewCard creates a card with the synthetic ID "{deckIndex}-{suit}-{rank}"
func NewCard(deckIndex int, suit Suit, rank Rank) Card {
	return Card{
		ID:   fmt.Sprintf("%d-%s-%s", deckIndex, suit, rank),
		Suit: suit,
		Rank: rank,
	}
}

// String returns the compact representation used in logs (e.g. "A♠")
func (c Card) String() string {
	return c.Rank.Short() + c.Suit.Symbol()
}

// Points returns the penalty value of the card
func (c Card) Points() int {
	return c.Rank.Points()
}

// IsWild reports whether the card is wild for the given wild rank
func (c Card) IsWild(wild Rank) bool {
	return c.Rank == wild
}
