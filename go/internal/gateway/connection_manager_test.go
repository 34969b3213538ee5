package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/room"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminID = "admin-discord-id"

type gatewayFixture struct {
	ctx  context.Context
	cm   *ConnectionManager
	ctrl *room.Controller
	url  string
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	cm := NewConnectionManager(DefaultConnectionConfig())
	rm := room.New(room.Config{AdminID: testAdminID}, room.NewSelector([]room.PromptPair{{En: "p", Ar: "ب"}}, nil))
	ctrl := room.NewController(rm, room.NewScheduler(clockwork.NewFakeClock()), cm)

	ctrlDone := make(chan struct{})
	cmDone := make(chan struct{})
	go func() {
		defer close(ctrlDone)
		_ = ctrl.Run(ctx)
	}()
	go func() {
		defer close(cmDone)
		cm.Start(ctx)
	}()

	mux := http.NewServeMux()
	NewService(cm, ctrl).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		cancel()
		<-cmDone
		<-ctrlDone
		srv.Close()
	})

	return &gatewayFixture{
		ctx:  ctx,
		cm:   cm,
		ctrl: ctrl,
		url:  "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func (f *gatewayFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readStateUntil reads room_state_update frames until cond holds.
func readStateUntil(t *testing.T, conn *websocket.Conn, cond func(room.State) bool) room.State {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg.Type != EventTypeRoomStateUpdate {
			continue
		}
		var state room.State
		require.NoError(t, json.Unmarshal(msg.Data, &state))
		if cond(state) {
			return state
		}
	}
	t.Fatal("expected room state never arrived")
	return room.State{}
}

func send(t *testing.T, conn *websocket.Conn, eventType EventType, data any) {
	t.Helper()
	msg, err := NewMessage(eventType, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

func handshake(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	connected := readMessage(t, conn)
	require.Equal(t, EventTypeConnected, connected.Type)
	var payload ConnectedPayload
	require.NoError(t, json.Unmarshal(connected.Data, &payload))
	require.NotEmpty(t, payload.SocketID)

	initial := readMessage(t, conn)
	require.Equal(t, EventTypeRoomStateUpdate, initial.Type)
	return payload.SocketID
}

func TestGatewayJoinBroadcastsState(t *testing.T) {
	f := newGatewayFixture(t)

	host := f.dial(t)
	hostID := handshake(t, host)
	guest := f.dial(t)
	guestID := handshake(t, guest)
	assert.NotEqual(t, hostID, guestID)

	send(t, host, EventTypeJoinRoom, JoinRoomPayload{DiscordID: testAdminID, Username: "Host"})
	state := readStateUntil(t, guest, func(s room.State) bool {
		_, ok := s.Players[hostID]
		return ok
	})
	assert.True(t, state.Players[hostID].Admin)
	assert.Equal(t, "Host", state.Players[hostID].DisplayName)

	send(t, host, EventTypeStartGame, nil)
	state = readStateUntil(t, guest, func(s room.State) bool {
		return s.Phase == room.PhasePromptReveal
	})
	require.NotNil(t, state.Timer)
	assert.Equal(t, room.PromptRevealDuration, *state.Timer)
	assert.Equal(t, room.PromptPair{En: "p", Ar: "ب"}, state.CurrentPrompt)
}

func TestGatewayDisconnectRemovesPlayer(t *testing.T) {
	f := newGatewayFixture(t)

	watcher := f.dial(t)
	handshake(t, watcher)

	leaver := f.dial(t)
	leaverID := handshake(t, leaver)
	send(t, leaver, EventTypeJoinRoom, JoinRoomPayload{DiscordID: "d1", Username: "Leaver"})
	readStateUntil(t, watcher, func(s room.State) bool {
		_, ok := s.Players[leaverID]
		return ok
	})

	require.NoError(t, leaver.Close())
	readStateUntil(t, watcher, func(s room.State) bool {
		_, ok := s.Players[leaverID]
		return !ok
	})

	require.Eventually(t, func() bool {
		return f.cm.ConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestGatewayIgnoresMalformedMessages(t *testing.T) {
	f := newGatewayFixture(t)

	conn := f.dial(t)
	id := handshake(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	send(t, conn, EventType("dance"), nil)
	send(t, conn, EventTypeJoinRoom, JoinRoomPayload{DiscordID: "d1", Username: "Still here"})

	state := readStateUntil(t, conn, func(s room.State) bool {
		_, ok := s.Players[id]
		return ok
	})
	assert.Equal(t, "Still here", state.Players[id].DisplayName)
}

func TestBroadcastDoesNotBlockWhenQueueFull(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(cm.broadcastCh)+10; i++ {
			cm.Broadcast(room.State{})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
}
