package deck

import (
	rand "math/rand/v2"
)

// DecksFor returns the number of standard 52-card decks used for a player
// count: one deck for 2-3 players, two for 4-5, three for 6-8.
func DecksFor(players int) int {
	switch {
	case players <= 3:
		return 1
	case players <= 5:
		return 2
	default:
		return 3
	}
}

// Deck is a composite deck built from one or more standard 52-card decks.
// The engine treats it as an opaque ordered sequence and pops from the end.
type Deck struct {
	cards []Card
}

// NewComposite creates an unshuffled composite deck of numDecks standard
// decks. Card IDs carry the deck index so duplicates remain distinguishable.
func NewComposite(numDecks int) *Deck {
	cards := make([]Card, 0, numDecks*52)
	for d := 0; d < numDecks; d++ {
		for _, suit := range Suits() {
			for _, rank := range Ranks() {
				cards = append(cards, NewCard(d, suit, rank))
			}
		}
	}
	return &Deck{cards: cards}
}

// Shuffle performs a Fisher-Yates permutation of the full deck
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card (the end of the sequence)
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, true
}

// Len returns the number of cards remaining
func (d *Deck) Len() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards, bottom first
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
