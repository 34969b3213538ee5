package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/room"
)

// RoomActions is what the gateway needs from the room controller.
type RoomActions interface {
	Join(ctx context.Context, connID, externalID, displayName string) error
	Leave(ctx context.Context, connID string) error
	SetDeck(ctx context.Context, connID string, deck room.Deck) error
	AddCustomPrompt(ctx context.Context, connID, en, ar string) error
	StartGame(ctx context.Context, connID string) error
	SubmitMedia(ctx context.Context, connID, mediaRef string) error
	SubmitVote(ctx context.Context, connID, target string) error
	Snapshot(ctx context.Context) (room.State, error)
}

// Dispatch decodes one inbound message from connID and forwards it to the
// room. Decode failures and unknown types return an error; room rejections
// are passed through unchanged.
func Dispatch(ctx context.Context, actions RoomActions, connID string, msg Message) error {
	switch msg.Type {
	case EventTypeJoinRoom:
		var p JoinRoomPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return actions.Join(ctx, connID, p.DiscordID, p.Username)

	case EventTypeAdminSetDeck:
		var deck string
		if err := decode(msg, &deck); err != nil {
			return err
		}
		return actions.SetDeck(ctx, connID, room.Deck(deck))

	case EventTypeAdminAddCustomPrompt:
		var p CustomPromptPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return actions.AddCustomPrompt(ctx, connID, p.En, p.Ar)

	case EventTypeStartGame:
		return actions.StartGame(ctx, connID)

	case EventTypePlayerSubmitGif:
		var url string
		if err := decode(msg, &url); err != nil {
			return err
		}
		return actions.SubmitMedia(ctx, connID, url)

	case EventTypePlayerSubmitVote:
		var target string
		if err := decode(msg, &target); err != nil {
			return err
		}
		return actions.SubmitVote(ctx, connID, target)

	default:
		return fmt.Errorf("unknown event type: %s", msg.Type)
	}
}

func decode(msg Message, v any) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("%s: missing data", msg.Type)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", msg.Type, err)
	}
	return nil
}
