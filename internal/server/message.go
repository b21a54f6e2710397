package server

import (
	"github.com/lox/threethirteen/internal/deck"
	"github.com/lox/threethirteen/internal/game"
)

// Command is an inbound client frame. All commands are flat JSON objects
// discriminated by type; fields not used by a given type are omitted.
type Command struct {
	Type       MessageType `json:"type"`
	RoomID     string      `json:"room_id,omitempty"`
	PlayerName string      `json:"player_name,omitempty"`
	Source     string      `json:"source,omitempty"`
	CardID     string      `json:"card_id,omitempty"`
}

// RoomSummary is one row of the lobby's room list
type RoomSummary struct {
	RoomID      string     `json:"room_id"`
	RoomName    string     `json:"room_name"`
	Status      RoomStatus `json:"status"`
	PlayerCount int        `json:"player_count"`
	MaxPlayers  int        `json:"max_players"`
}

// RoomsUpdate carries the full room list to every lobby subscriber
type RoomsUpdate struct {
	Type  MessageType   `json:"type"`
	Rooms []RoomSummary `json:"rooms"`
}

// LobbyPlayerInfo is a named player waiting in a room's lobby
type LobbyPlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LobbyUpdate carries a room's current roster to its members
type LobbyUpdate struct {
	Type    MessageType       `json:"type"`
	RoomID  string            `json:"room_id"`
	Players []LobbyPlayerInfo `json:"players"`
	Status  RoomStatus        `json:"status"`
}

// CardView is a card as serialised to clients, with wildness resolved for
// the current round.
type CardView struct {
	ID     string    `json:"id"`
	Suit   deck.Suit `json:"suit"`
	Rank   deck.Rank `json:"rank"`
	IsWild bool      `json:"is_wild"`
}

// PlayerView is a seated player as seen by one recipient: the recipient's
// own hand is included in full, everyone else's is reduced to a count.
type PlayerView struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Hand            []CardView `json:"hand"`
	HandCount       int        `json:"hand_count"`
	CumulativeScore int        `json:"cumulative_score"`
	HasGoneOut      bool       `json:"has_gone_out"`
}

// GameView is the personalised game state for one recipient. The draw pile
// is reduced to a count and the discard pile to its visible top cards.
type GameView struct {
	RoomID              string            `json:"room_id"`
	RoundNumber         int               `json:"round_number"`
	WildRank            deck.Rank         `json:"wild_rank"`
	Phase               game.Phase        `json:"phase"`
	TurnPhase           game.TurnPhase    `json:"turn_phase"`
	Players             []PlayerView      `json:"players"`
	DealerIndex         int               `json:"dealer_index"`
	CurrentPlayerIndex  int               `json:"current_player_index"`
	DrawPileCount       int               `json:"draw_pile_count"`
	DiscardPile         []CardView        `json:"discard_pile"`
	WentOutPlayerID     string            `json:"went_out_player_id,omitempty"`
	FinalTurnsRemaining int               `json:"final_turns_remaining"`
	NextRoundConfirmed  []string          `json:"next_round_confirmed_by"`
	RoundResults        []RoundResultView `json:"round_results,omitempty"`
}

// GameStateMsg wraps a personalised view for delivery
type GameStateMsg struct {
	Type MessageType `json:"type"`
	Game GameView    `json:"game"`
}

// PlayerWentOut notifies the room that a player has gone out
type PlayerWentOut struct {
	Type                MessageType `json:"type"`
	PlayerID            string      `json:"player_id"`
	PlayerName          string      `json:"player_name"`
	FinalTurnsRemaining int         `json:"final_turns_remaining"`
}

// RoundResultView is one player's scoring outcome for a completed round
type RoundResultView struct {
	PlayerID        string     `json:"player_id"`
	PlayerName      string     `json:"player_name"`
	RoundPoints     int        `json:"round_points"`
	CumulativeScore int        `json:"cumulative_score"`
	PenaltyCards    []CardView `json:"penalty_cards"`
}

// RoundOver carries the full scoring results for the round just completed
type RoundOver struct {
	Type        MessageType       `json:"type"`
	RoundNumber int               `json:"round_number"`
	Results     []RoundResultView `json:"results"`
}

// LeaderboardRow is one row of the final standings
type LeaderboardRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// GameFinished carries the final leaderboard, ascending by score
type GameFinished struct {
	Type        MessageType      `json:"type"`
	Leaderboard []LeaderboardRow `json:"leaderboard"`
}

// LobbyReset tells clients to leave the game view after end_game
type LobbyReset struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"room_id"`
}

// ErrorMsg reports a rejected command to its originator. Message carries the
// violation kind; Detail is human-readable.
type ErrorMsg struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
}
