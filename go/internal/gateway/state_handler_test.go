package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleGetRoomState(t *testing.T) {
	timer := 12
	actions := &fakeActions{state: room.State{
		Phase:   room.PhaseVoting,
		Players: map[string]*room.Player{"c1": {ExternalID: "d1", DisplayName: "Sara", Score: 3}},
		Timer:   &timer,
	}}
	h := NewStateHandler(actions)

	rec := httptest.NewRecorder()
	h.HandleGetRoomState(rec, httptest.NewRequest(http.MethodGet, "/api/room/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VOTING", body["phase"])
	assert.EqualValues(t, 12, body["timer"])
	player := body["players"].(map[string]any)["c1"].(map[string]any)
	assert.Equal(t, "d1", player["discordId"])
	assert.Equal(t, "Sara", player["username"])
	assert.EqualValues(t, 3, player["score"])
}

func TestHandleGetRoomStateMethodNotAllowed(t *testing.T) {
	h := NewStateHandler(&fakeActions{})

	rec := httptest.NewRecorder()
	h.HandleGetRoomState(rec, httptest.NewRequest(http.MethodPost, "/api/room/state", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleGetRoomStateError(t *testing.T) {
	h := NewStateHandler(&fakeActions{err: errors.New("stopped")})

	rec := httptest.NewRecorder()
	h.HandleGetRoomState(rec, httptest.NewRequest(http.MethodGet, "/api/room/state", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
