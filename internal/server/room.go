package server

import (
	"encoding/json"
	"errors"
	rand "math/rand/v2"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/lox/threethirteen/internal/game"
)

// RoomStatus is the lobby-visible availability of a room
type RoomStatus string

const (
	StatusEmpty     RoomStatus = "empty"
	StatusGathering RoomStatus = "gathering"
	StatusInGame    RoomStatus = "in_game"
)

const maxPlayerNameLen = 20

// client is the transport-facing side of a connection as the room sees it
type client interface {
	Send(v any) error
	Close() error
}

type lobbyPlayer struct {
	id   string
	name string
}

// Room binds a set of connections, a lobby roster, and an optional active
// game. One mutex guards all of it; commands mutate state and enqueue
// broadcasts under the lock, and the actual socket writes happen
// asynchronously on each connection's write pump.
type Room struct {
	id     string
	name   string
	logger *log.Logger
	notify func() // republishes lobby summaries; called outside the lock

	mu      sync.Mutex
	clients map[string]client // keyed by player id, one connection each
	lobby   []lobbyPlayer
	game    *game.Game
	rng     *rand.Rand
}

func newRoom(id, name string, logger *log.Logger, rng *rand.Rand, notify func()) *Room {
	return &Room{
		id:      id,
		name:    name,
		logger:  logger.WithPrefix("room").With("id", id),
		notify:  notify,
		clients: make(map[string]client),
		rng:     rng,
	}
}

// ID returns the stable room identifier
func (r *Room) ID() string {
	return r.id
}

// Summary returns the lobby row for this room
func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summaryLocked()
}

func (r *Room) summaryLocked() RoomSummary {
	return RoomSummary{
		RoomID:      r.id,
		RoomName:    r.name,
		Status:      r.statusLocked(),
		PlayerCount: r.playerCountLocked(),
		MaxPlayers:  game.MaxPlayers,
	}
}

// statusLocked derives the room status: in_game iff a game exists, empty iff
// nothing at all, gathering otherwise.
func (r *Room) statusLocked() RoomStatus {
	switch {
	case r.game != nil:
		return StatusInGame
	case len(r.lobby) == 0:
		return StatusEmpty
	default:
		return StatusGathering
	}
}

func (r *Room) playerCountLocked() int {
	if r.game != nil {
		return len(r.game.Players)
	}
	return len(r.lobby)
}

// Register attaches a connection for a player. A second connection with the
// same player id closes and replaces the first. The new connection receives
// the current roster, plus a game snapshot if a hand is in progress.
func (r *Room) Register(playerID string, c client) {
	r.mu.Lock()
	old := r.clients[playerID]
	r.clients[playerID] = c

	_ = c.Send(r.lobbyUpdateLocked())
	if r.game != nil {
		// Replay the current state so a client that connected after the
		// last broadcast is not left staring at nothing
		_ = c.Send(GameStateMsg{Type: MessageTypeGameState, Game: buildGameView(r.game, playerID)})
	}
	r.mu.Unlock()

	if old != nil {
		r.logger.Info("replacing connection", "player", playerID)
		_ = old.Close()
	}
}

// Unregister detaches a connection. If the room is still gathering the
// player also leaves the lobby roster; in-game state is never touched.
func (r *Room) Unregister(playerID string, c client) {
	r.mu.Lock()
	if r.clients[playerID] != c {
		// A replacement connection took over; nothing to clean up
		r.mu.Unlock()
		return
	}
	delete(r.clients, playerID)

	changed := false
	if r.statusLocked() == StatusGathering {
		changed = r.removeFromLobbyLocked(playerID)
		if changed {
			r.broadcastLocked(r.lobbyUpdateLocked())
		}
	}
	r.mu.Unlock()

	if changed {
		r.notify()
	}
}

// HandleCommand parses and executes one inbound command for a player. Rule
// violations go back to the originator only; the lobby service is notified
// after the lock is released when the room's summary changed.
func (r *Room) HandleCommand(playerID string, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		r.mu.Lock()
		r.sendErrorLocked(playerID, game.NewError(game.KindMalformedCommand, "invalid JSON"))
		r.mu.Unlock()
		return
	}

	before, after := r.apply(playerID, cmd)
	if before != after {
		r.notify()
	}
}

func (r *Room) apply(playerID string, cmd Command) (before, after RoomSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { after = r.summaryLocked() }()
	defer func() {
		if rec := recover(); rec != nil {
			// The command is aborted; the room stays usable
			r.logger.Error("command panicked", "type", cmd.Type, "player", playerID, "panic", rec)
		}
	}()

	before = r.summaryLocked()
	if err := r.dispatchLocked(playerID, cmd); err != nil {
		r.sendErrorLocked(playerID, err)
	}
	return
}

func (r *Room) dispatchLocked(playerID string, cmd Command) error {
	r.logger.Debug("command", "type", cmd.Type, "player", playerID)

	switch cmd.Type {
	case MessageTypeJoinLobby:
		return r.joinLobbyLocked(playerID, cmd.PlayerName)
	case MessageTypeLeaveLobby:
		return r.leaveLobbyLocked(playerID)
	case MessageTypeStartGame:
		return r.startGameLocked(playerID)
	case MessageTypeDrawCard:
		return r.drawCardLocked(playerID, cmd.Source)
	case MessageTypeDiscardCard:
		return r.discardCardLocked(playerID, cmd.CardID)
	case MessageTypeGoOut:
		return r.goOutLocked(playerID, cmd.CardID)
	case MessageTypeNextRound:
		return r.nextRoundLocked(playerID)
	case MessageTypeEndGame:
		return r.endGameLocked(playerID)
	default:
		return game.NewError(game.KindMalformedCommand, "unknown command type %q", cmd.Type)
	}
}

func (r *Room) joinLobbyLocked(playerID, playerName string) error {
	if r.statusLocked() == StatusInGame {
		return game.NewError(game.KindRoomBusy, "a game is already in progress")
	}

	name := strings.TrimSpace(playerName)
	if name == "" || utf8.RuneCountInString(name) > maxPlayerNameLen {
		return game.NewError(game.KindMalformedCommand, "player name must be 1-%d characters", maxPlayerNameLen)
	}
	for _, p := range r.lobby {
		if p.id != playerID && strings.EqualFold(p.name, name) {
			return game.NewError(game.KindDuplicateName, "name %q is already taken", name)
		}
	}

	if existing := r.lobbyEntryLocked(playerID); existing != nil {
		existing.name = name
	} else {
		if len(r.lobby) >= game.MaxPlayers {
			return game.NewError(game.KindRoomFull, "room already has %d players", game.MaxPlayers)
		}
		r.lobby = append(r.lobby, lobbyPlayer{id: playerID, name: name})
	}

	r.logger.Info("player joined lobby", "player", playerID, "name", name, "lobby", len(r.lobby))
	r.broadcastLocked(r.lobbyUpdateLocked())
	return nil
}

func (r *Room) leaveLobbyLocked(playerID string) error {
	if r.statusLocked() == StatusInGame {
		return game.NewError(game.KindWrongPhase, "cannot leave the lobby during a game")
	}
	if !r.removeFromLobbyLocked(playerID) {
		return game.NewError(game.KindNotInLobby, "you have not joined this room's lobby")
	}
	r.logger.Info("player left lobby", "player", playerID, "lobby", len(r.lobby))
	r.broadcastLocked(r.lobbyUpdateLocked())
	return nil
}

func (r *Room) startGameLocked(playerID string) error {
	if r.game != nil {
		return game.NewError(game.KindRoomBusy, "a game is already in progress")
	}
	if r.lobbyEntryLocked(playerID) == nil {
		return game.NewError(game.KindNotInLobby, "join the lobby before starting a game")
	}
	if len(r.lobby) < game.MinPlayers {
		return game.NewError(game.KindWrongPhase, "need at least %d players to start", game.MinPlayers)
	}

	seats := make([]game.Seat, 0, len(r.lobby))
	for _, p := range r.lobby {
		seats = append(seats, game.Seat{ID: p.id, Name: p.name})
	}

	g, err := game.New(r.id, seats, r.rng)
	if err != nil {
		return err
	}
	r.game = g

	r.logger.Info("game started", "players", len(seats))
	r.broadcastGameStateLocked()
	return nil
}

func (r *Room) drawCardLocked(playerID, source string) error {
	g := r.game
	if g == nil {
		return game.NewError(game.KindWrongPhase, "no active game")
	}

	card, err := g.Draw(playerID, game.DrawSource(source))
	if err != nil {
		return err
	}

	r.logger.Debug("card drawn", "player", playerID, "source", source, "card", card.String())
	r.broadcastGameStateLocked()
	return nil
}

func (r *Room) discardCardLocked(playerID, cardID string) error {
	g := r.game
	if g == nil {
		return game.NewError(game.KindWrongPhase, "no active game")
	}

	if err := g.Discard(playerID, cardID); err != nil {
		return err
	}

	r.broadcastGameStateLocked()
	if g.Phase == game.PhaseRoundOver {
		r.broadcastRoundOverLocked()
	}
	return nil
}

func (r *Room) goOutLocked(playerID, cardID string) error {
	g := r.game
	if g == nil {
		return game.NewError(game.KindWrongPhase, "no active game")
	}

	if err := g.GoOut(playerID, cardID); err != nil {
		return err
	}

	p := g.PlayerByID(playerID)
	r.logger.Info("player went out", "player", p.Name, "round", g.RoundNumber)
	r.broadcastLocked(PlayerWentOut{
		Type:                MessageTypePlayerWentOut,
		PlayerID:            p.ID,
		PlayerName:          p.Name,
		FinalTurnsRemaining: g.FinalTurnsRemaining,
	})
	r.broadcastGameStateLocked()
	if g.Phase == game.PhaseRoundOver {
		r.broadcastRoundOverLocked()
	}
	return nil
}

func (r *Room) nextRoundLocked(playerID string) error {
	g := r.game
	if g == nil {
		return game.NewError(game.KindWrongPhase, "no active game")
	}

	advanced, err := g.ConfirmNextRound(playerID)
	if err != nil {
		return err
	}

	r.broadcastGameStateLocked()
	if advanced && g.Phase == game.PhaseFinished {
		r.logger.Info("game finished", "rounds", g.RoundNumber)
		r.broadcastLocked(GameFinished{
			Type:        MessageTypeGameFinished,
			Leaderboard: leaderboardRows(g.Leaderboard),
		})
	}
	return nil
}

// endGameLocked tears the game down and empties the lobby roster. Clients
// stay connected; they must re-join from the main lobby.
func (r *Room) endGameLocked(playerID string) error {
	if r.game == nil {
		return game.NewError(game.KindWrongPhase, "no active game")
	}

	r.logger.Info("game ended", "by", playerID, "round", r.game.RoundNumber)
	r.broadcastLocked(LobbyReset{Type: MessageTypeLobbyReset, RoomID: r.id})
	r.game = nil
	r.lobby = nil
	return nil
}

func (r *Room) lobbyEntryLocked(playerID string) *lobbyPlayer {
	for i := range r.lobby {
		if r.lobby[i].id == playerID {
			return &r.lobby[i]
		}
	}
	return nil
}

func (r *Room) removeFromLobbyLocked(playerID string) bool {
	for i := range r.lobby {
		if r.lobby[i].id == playerID {
			r.lobby = append(r.lobby[:i], r.lobby[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) lobbyUpdateLocked() LobbyUpdate {
	players := make([]LobbyPlayerInfo, 0, len(r.lobby))
	for _, p := range r.lobby {
		players = append(players, LobbyPlayerInfo{ID: p.id, Name: p.name})
	}
	return LobbyUpdate{
		Type:    MessageTypeLobbyUpdate,
		RoomID:  r.id,
		Players: players,
		Status:  r.statusLocked(),
	}
}

// broadcastGameStateLocked sends each connected client its personalised view
func (r *Room) broadcastGameStateLocked() {
	for id, c := range r.clients {
		_ = c.Send(GameStateMsg{Type: MessageTypeGameState, Game: buildGameView(r.game, id)})
	}
}

func (r *Room) broadcastRoundOverLocked() {
	g := r.game
	r.broadcastLocked(RoundOver{
		Type:        MessageTypeRoundOver,
		RoundNumber: g.RoundNumber,
		Results:     resultViews(g.RoundResults, g.Wild()),
	})
}

func (r *Room) broadcastLocked(v any) {
	for _, c := range r.clients {
		_ = c.Send(v)
	}
}

func (r *Room) sendErrorLocked(playerID string, err error) {
	var gerr *game.Error
	if !errors.As(err, &gerr) {
		// Unexpected fault: log it, abort the command, keep the room alive
		r.logger.Error("internal error", "player", playerID, "error", err)
		return
	}

	r.logger.Debug("command rejected", "player", playerID, "kind", gerr.Kind, "detail", gerr.Detail)
	if c, ok := r.clients[playerID]; ok {
		_ = c.Send(ErrorMsg{
			Type:    MessageTypeError,
			Message: string(gerr.Kind),
			Detail:  gerr.Detail,
		})
	}
}
