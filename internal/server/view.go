package server

import (
	"github.com/lox/threethirteen/internal/deck"
	"github.com/lox/threethirteen/internal/game"
)

// Number of discard-pile cards exposed to clients; the last element is the
// top of the pile.
const discardViewDepth = 6

// buildGameView serialises a personalised snapshot of the game for one
// recipient. It copies every slice on the way out so the broadcast payload
// never aliases engine state.
func buildGameView(g *game.Game, viewerID string) GameView {
	wild := g.Wild()

	players := make([]PlayerView, 0, len(g.Players))
	for _, p := range g.Players {
		pv := PlayerView{
			ID:              p.ID,
			Name:            p.Name,
			HandCount:       len(p.Hand),
			CumulativeScore: p.CumulativeScore,
			HasGoneOut:      p.HasGoneOut,
		}
		if p.ID == viewerID {
			pv.Hand = cardViews(p.Hand, wild)
		}
		players = append(players, pv)
	}

	discard := g.DiscardPile
	if len(discard) > discardViewDepth {
		discard = discard[len(discard)-discardViewDepth:]
	}

	view := GameView{
		RoomID:              g.RoomID,
		RoundNumber:         g.RoundNumber,
		WildRank:            wild,
		Phase:               g.Phase,
		TurnPhase:           g.TurnPhase,
		Players:             players,
		DealerIndex:         g.DealerIndex,
		CurrentPlayerIndex:  g.CurrentPlayerIndex,
		DrawPileCount:       len(g.DrawPile),
		DiscardPile:         cardViews(discard, wild),
		WentOutPlayerID:     g.WentOutPlayerID,
		FinalTurnsRemaining: g.FinalTurnsRemaining,
		NextRoundConfirmed:  append([]string(nil), g.ConfirmedNextRound...),
	}
	if g.Phase == game.PhaseRoundOver || g.Phase == game.PhaseFinished {
		view.RoundResults = resultViews(g.RoundResults, wild)
	}
	return view
}

func cardViews(cards []deck.Card, wild deck.Rank) []CardView {
	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardView{
			ID:     c.ID,
			Suit:   c.Suit,
			Rank:   c.Rank,
			IsWild: c.IsWild(wild),
		})
	}
	return out
}

func resultViews(results []game.RoundResult, wild deck.Rank) []RoundResultView {
	out := make([]RoundResultView, 0, len(results))
	for _, r := range results {
		out = append(out, RoundResultView{
			PlayerID:        r.PlayerID,
			PlayerName:      r.PlayerName,
			RoundPoints:     r.RoundPoints,
			CumulativeScore: r.CumulativeScore,
			PenaltyCards:    cardViews(r.PenaltyCards, wild),
		})
	}
	return out
}

func leaderboardRows(entries []game.LeaderboardEntry) []LeaderboardRow {
	out := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		out = append(out, LeaderboardRow{ID: e.ID, Name: e.Name, Score: e.Score})
	}
	return out
}
