package gateway

import (
	"encoding/json"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/room"
)

// Message is the envelope for every websocket frame in either direction.
type Message struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EventType names a websocket event.
type EventType string

const (
	// client -> server
	EventTypeJoinRoom             EventType = "join_room"
	EventTypeAdminSetDeck         EventType = "admin_set_deck"
	EventTypeAdminAddCustomPrompt EventType = "admin_add_custom_prompt"
	EventTypeStartGame            EventType = "start_game"
	EventTypePlayerSubmitGif      EventType = "player_submit_gif"
	EventTypePlayerSubmitVote     EventType = "player_submit_vote"

	// server -> client
	EventTypeConnected       EventType = "connected"
	EventTypeRoomStateUpdate EventType = "room_state_update"
)

// JoinRoomPayload is sent once the client has resolved its identity.
type JoinRoomPayload struct {
	DiscordID string `json:"discordId"`
	Username  string `json:"username"`
}

// CustomPromptPayload carries a new prompt in both locales.
type CustomPromptPayload struct {
	En string `json:"en"`
	Ar string `json:"ar"`
}

// ConnectedPayload tells a client which connection id the room knows it by.
type ConnectedPayload struct {
	SocketID string `json:"socketId"`
}

// NewMessage marshals data into an envelope of the given type.
func NewMessage(t EventType, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Data: raw}, nil
}

// encodeState builds the room_state_update frame for a snapshot.
func encodeState(state room.State) ([]byte, error) {
	msg, err := NewMessage(EventTypeRoomStateUpdate, state)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
