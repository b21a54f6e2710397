package server

// MessageType discriminates WebSocket messages in both directions
type MessageType string

const (
	// Client to server commands
	MessageTypeJoinLobby   MessageType = "join_lobby"
	MessageTypeLeaveLobby  MessageType = "leave_lobby"
	MessageTypeStartGame   MessageType = "start_game"
	MessageTypeDrawCard    MessageType = "draw_card"
	MessageTypeDiscardCard MessageType = "discard_card"
	MessageTypeGoOut       MessageType = "go_out"
	MessageTypeNextRound   MessageType = "next_round"
	MessageTypeEndGame     MessageType = "end_game"

	// Server to client messages
	MessageTypeRoomsUpdate   MessageType = "rooms_update"
	MessageTypeLobbyUpdate   MessageType = "lobby_update"
	MessageTypeGameState     MessageType = "game_state"
	MessageTypePlayerWentOut MessageType = "player_went_out"
	MessageTypeRoundOver     MessageType = "round_over"
	MessageTypeGameFinished  MessageType = "game_finished"
	MessageTypeLobbyReset    MessageType = "lobby_reset"
	MessageTypeError         MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
