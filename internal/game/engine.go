package game

import (
	"fmt"
	rand "math/rand/v2"
	"sort"

	"github.com/lox/threethirteen/internal/deck"
)

// New starts a game for the given lobby roster. Seating order is randomised
// and the first dealer is chosen uniformly; round one is dealt immediately.
func New(roomID string, roster []Seat, rng *rand.Rand) (*Game, error) {
	if len(roster) < MinPlayers || len(roster) > MaxPlayers {
		return nil, NewError(KindWrongPhase, "need %d-%d players, have %d", MinPlayers, MaxPlayers, len(roster))
	}

	seats := make([]Seat, len(roster))
	copy(seats, roster)
	rng.Shuffle(len(seats), func(i, j int) {
		seats[i], seats[j] = seats[j], seats[i]
	})

	players := make([]*Player, len(seats))
	for i, s := range seats {
		players[i] = &Player{ID: s.ID, Name: s.Name}
	}

	g := &Game{
		RoomID:      roomID,
		Players:     players,
		DealerIndex: rng.IntN(len(players)),
		rng:         rng,
	}
	g.startRound(FirstRound)
	return g, nil
}

// startRound resets per-round state, builds and shuffles a fresh composite
// deck, deals clockwise from the dealer's left, and flips the first discard.
func (g *Game) startRound(round int) {
	g.RoundNumber = round
	g.Phase = PhasePlaying
	g.TurnPhase = TurnDraw
	g.WentOutPlayerID = ""
	g.FinalTurnsRemaining = 0
	g.RoundResults = nil
	g.ConfirmedNextRound = nil

	for _, p := range g.Players {
		p.Hand = nil
		p.HasGoneOut = false
	}

	d := deck.NewComposite(deck.DecksFor(len(g.Players)))
	d.Shuffle(g.rng)

	n := len(g.Players)
	for i := 0; i < DealSize(round); i++ {
		for off := 1; off <= n; off++ {
			p := g.Players[(g.DealerIndex+off)%n]
			card, _ := d.Draw()
			p.Hand = append(p.Hand, card)
		}
	}

	g.DrawPile = d.Cards()
	top := g.DrawPile[len(g.DrawPile)-1]
	g.DrawPile = g.DrawPile[:len(g.DrawPile)-1]
	g.DiscardPile = []deck.Card{top}

	g.CurrentPlayerIndex = (g.DealerIndex + 1) % n
}

// Draw moves one card from the chosen source into the current player's hand
// and advances the turn to the discard phase. An empty draw pile is refilled
// from the discard pile, preserving its top card, before the draw is served.
func (g *Game) Draw(playerID string, source DrawSource) (deck.Card, error) {
	if err := g.requireTurn(playerID, TurnDraw); err != nil {
		return deck.Card{}, err
	}

	var card deck.Card
	switch source {
	case DrawFromDiscard:
		if len(g.DiscardPile) == 0 {
			return deck.Card{}, NewError(KindEmptyDiscard, "discard pile is empty")
		}
		card = g.DiscardPile[len(g.DiscardPile)-1]
		g.DiscardPile = g.DiscardPile[:len(g.DiscardPile)-1]

	case DrawFromPile:
		if len(g.DrawPile) == 0 {
			g.recycleDiscard()
		}
		if len(g.DrawPile) == 0 {
			// Unreachable with legal deck compositions; treated as a fault
			return deck.Card{}, fmt.Errorf("draw pile exhausted with no recyclable discards")
		}
		card = g.DrawPile[len(g.DrawPile)-1]
		g.DrawPile = g.DrawPile[:len(g.DrawPile)-1]

	default:
		return deck.Card{}, NewError(KindMalformedCommand, "unknown draw source %q", source)
	}

	p := g.CurrentPlayer()
	p.Hand = append(p.Hand, card)
	g.TurnPhase = TurnDiscard
	return card, nil
}

// recycleDiscard shuffles all but the top discard back into the draw pile
func (g *Game) recycleDiscard() {
	if len(g.DiscardPile) <= 1 {
		return
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	g.DrawPile = append(g.DrawPile, g.DiscardPile[:len(g.DiscardPile)-1]...)
	g.DiscardPile = []deck.Card{top}
	g.rng.Shuffle(len(g.DrawPile), func(i, j int) {
		g.DrawPile[i], g.DrawPile[j] = g.DrawPile[j], g.DrawPile[i]
	})
}

// Discard moves the named card from the current player's hand to the discard
// pile and ends their turn. During final turns the countdown decrements; when
// it reaches zero the round is scored.
func (g *Game) Discard(playerID, cardID string) error {
	if err := g.requireTurn(playerID, TurnDiscard); err != nil {
		return err
	}

	p := g.CurrentPlayer()
	card, ok := removeCard(&p.Hand, cardID)
	if !ok {
		return NewError(KindUnknownCard, "card %q is not in your hand", cardID)
	}
	g.DiscardPile = append(g.DiscardPile, card)

	g.endTurn()
	return nil
}

// GoOut validates that the hand minus the nominated discard partitions
// completely, then discards it and starts the final-turn countdown. On
// validation failure nothing is mutated and the player may still discard
// normally.
func (g *Game) GoOut(playerID, cardID string) error {
	if g.Phase != PhasePlaying {
		return NewError(KindWrongPhase, "going out is only allowed before someone else goes out")
	}
	if err := g.requireTurn(playerID, TurnDiscard); err != nil {
		return err
	}

	p := g.CurrentPlayer()
	idx := indexOfCard(p.Hand, cardID)
	if idx < 0 {
		return NewError(KindUnknownCard, "card %q is not in your hand", cardID)
	}

	remaining := make([]deck.Card, 0, len(p.Hand)-1)
	remaining = append(remaining, p.Hand[:idx]...)
	remaining = append(remaining, p.Hand[idx+1:]...)
	if !CanGoOut(remaining, g.Wild()) {
		return NewError(KindInvalidGoOut, "hand does not form valid sets and runs")
	}

	card, _ := removeCard(&p.Hand, cardID)
	g.DiscardPile = append(g.DiscardPile, card)

	p.HasGoneOut = true
	g.WentOutPlayerID = p.ID
	g.FinalTurnsRemaining = len(g.Players) - 1
	g.Phase = PhaseFinalTurns

	g.advanceTurn()
	return nil
}

// endTurn finishes the current player's turn after a normal discard
func (g *Game) endTurn() {
	if g.Phase == PhaseFinalTurns {
		g.FinalTurnsRemaining--
		if g.FinalTurnsRemaining <= 0 {
			g.scoreRound()
			return
		}
	}
	g.advanceTurn()
}

func (g *Game) advanceTurn() {
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	g.TurnPhase = TurnDraw
}

// scoreRound computes every player's minimum penalty and enters round_over.
// The player who went out scores zero, as does any later player whose final
// turn left a hand that partitions completely.
func (g *Game) scoreRound() {
	g.Phase = PhaseRoundOver
	g.TurnPhase = TurnDraw
	g.RoundResults = make([]RoundResult, 0, len(g.Players))

	for _, p := range g.Players {
		points, penaltyCards := MinPenalty(p.Hand, g.Wild())
		if p.ID == g.WentOutPlayerID {
			points, penaltyCards = 0, nil
		}
		p.CumulativeScore += points
		g.RoundResults = append(g.RoundResults, RoundResult{
			PlayerID:        p.ID,
			PlayerName:      p.Name,
			RoundPoints:     points,
			CumulativeScore: p.CumulativeScore,
			PenaltyCards:    penaltyCards,
		})
	}
}

// ConfirmNextRound records one player's confirmation at round_over. When
// every seated player has confirmed, the game either advances to the next
// round or, after round eleven, finishes with the leaderboard. The returned
// flag reports whether the game advanced.
func (g *Game) ConfirmNextRound(playerID string) (bool, error) {
	if g.Phase != PhaseRoundOver {
		return false, NewError(KindWrongPhase, "round is not over")
	}
	if g.PlayerByID(playerID) == nil {
		return false, NewError(KindNotInLobby, "player %q is not in this game", playerID)
	}
	if g.HasConfirmedNextRound(playerID) {
		// Duplicate confirmation is an idempotent success
		return false, nil
	}
	g.ConfirmedNextRound = append(g.ConfirmedNextRound, playerID)

	if len(g.ConfirmedNextRound) < len(g.Players) {
		return false, nil
	}

	if g.RoundNumber >= LastRound {
		g.finish()
		return true, nil
	}

	g.DealerIndex = (g.DealerIndex + 1) % len(g.Players)
	g.startRound(g.RoundNumber + 1)
	return true, nil
}

// finish computes the leaderboard, ascending by score with ties keeping
// seating order.
func (g *Game) finish() {
	g.Phase = PhaseFinished
	g.Leaderboard = make([]LeaderboardEntry, 0, len(g.Players))
	for _, p := range g.Players {
		g.Leaderboard = append(g.Leaderboard, LeaderboardEntry{
			ID:    p.ID,
			Name:  p.Name,
			Score: p.CumulativeScore,
		})
	}
	sort.SliceStable(g.Leaderboard, func(i, j int) bool {
		return g.Leaderboard[i].Score < g.Leaderboard[j].Score
	})
}

// requireTurn checks that the game is live, that the sender is the current
// player, and that the turn is in the expected sub-phase.
func (g *Game) requireTurn(playerID string, tp TurnPhase) error {
	if g.Phase != PhasePlaying && g.Phase != PhaseFinalTurns {
		return NewError(KindWrongPhase, "no turns in phase %s", g.Phase)
	}
	if g.CurrentPlayer().ID != playerID {
		return NewError(KindNotYourTurn, "it is %s's turn", g.CurrentPlayer().Name)
	}
	if g.TurnPhase != tp {
		return NewError(KindWrongPhase, "turn is in %s phase", g.TurnPhase)
	}
	return nil
}

func indexOfCard(hand []deck.Card, cardID string) int {
	for i, c := range hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

func removeCard(hand *[]deck.Card, cardID string) (deck.Card, bool) {
	idx := indexOfCard(*hand, cardID)
	if idx < 0 {
		return deck.Card{}, false
	}
	card := (*hand)[idx]
	*hand = append((*hand)[:idx], (*hand)[idx+1:]...)
	return card, true
}
