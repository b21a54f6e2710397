package game

import (
	rand "math/rand/v2"

	"github.com/lox/threethirteen/internal/deck"
)

// Phase is the top-level state of a hand
type Phase string

const (
	PhasePlaying    Phase = "playing"
	PhaseFinalTurns Phase = "final_turns"
	PhaseRoundOver  Phase = "round_over"
	PhaseFinished   Phase = "finished"
)

// TurnPhase is the sub-state within one player's turn: every turn is a draw
// followed by a discard (or go-out).
type TurnPhase string

const (
	TurnDraw    TurnPhase = "draw"
	TurnDiscard TurnPhase = "discard"
)

// DrawSource selects where a draw takes its card from
type DrawSource string

const (
	DrawFromPile    DrawSource = "pile"
	DrawFromDiscard DrawSource = "discard"
)

const (
	MinPlayers = 2
	MaxPlayers = 8
	FirstRound = 1
	LastRound  = 11
)

// DealSize returns the number of cards dealt in the given round (r+2)
func DealSize(round int) int {
	return round + 2
}

// WildRank returns the wild rank for the given round: the rank whose
// ascending position equals the deal size (3s in round 1 through kings in
// round 11).
func WildRank(round int) deck.Rank {
	return deck.Rank(round + 2)
}

// Player is a seated player's in-game state. The seat order is fixed at game
// start.
type Player struct {
	ID              string
	Name            string
	Hand            []deck.Card
	CumulativeScore int
	HasGoneOut      bool
}

// Seat names a player joining a game from the lobby roster
type Seat struct {
	ID   string
	Name string
}

// RoundResult is one player's scoring outcome for a completed round
type RoundResult struct {
	PlayerID        string
	PlayerName      string
	RoundPoints     int
	CumulativeScore int
	PenaltyCards    []deck.Card
}

// LeaderboardEntry is one row of the final standings, sorted ascending by
// score (lowest wins); ties preserve seating order.
type LeaderboardEntry struct {
	ID    string
	Name  string
	Score int
}

// Game is the authoritative state of one hand of Three Thirteen. It is not
// safe for concurrent use; the owning room serialises all access under its
// lock.
type Game struct {
	RoomID              string
	RoundNumber         int
	Players             []*Player
	DealerIndex         int
	CurrentPlayerIndex  int
	Phase               Phase
	TurnPhase           TurnPhase
	DrawPile            []deck.Card
	DiscardPile         []deck.Card
	WentOutPlayerID     string
	FinalTurnsRemaining int
	RoundResults        []RoundResult
	Leaderboard         []LeaderboardEntry
	ConfirmedNextRound  []string

	rng *rand.Rand
}

// Wild returns the wild rank for the current round
func (g *Game) Wild() deck.Rank {
	return WildRank(g.RoundNumber)
}

// CurrentPlayer returns the player whose turn it is
func (g *Game) CurrentPlayer() *Player {
	return g.Players[g.CurrentPlayerIndex]
}

// PlayerByID returns the seated player with the given id, or nil
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// DiscardTop returns the top of the discard pile
func (g *Game) DiscardTop() (deck.Card, bool) {
	if len(g.DiscardPile) == 0 {
		return deck.Card{}, false
	}
	return g.DiscardPile[len(g.DiscardPile)-1], true
}

// CardCount returns the total number of cards across all hands and piles.
// It is constant for the duration of a round.
func (g *Game) CardCount() int {
	n := len(g.DrawPile) + len(g.DiscardPile)
	for _, p := range g.Players {
		n += len(p.Hand)
	}
	return n
}

// HasConfirmedNextRound reports whether the player already confirmed the
// next round.
func (g *Game) HasConfirmedNextRound(playerID string) bool {
	for _, id := range g.ConfirmedNextRound {
		if id == playerID {
			return true
		}
	}
	return false
}
