package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/room"
	"github.com/rs/zerolog/log"
)

// StateProvider returns the current room snapshot.
type StateProvider interface {
	Snapshot(ctx context.Context) (room.State, error)
}

// StateHandler handles HTTP requests for the room state
type StateHandler struct {
	stateProvider StateProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
	}
}

// HandleGetRoomState handles GET /api/room/state
func (h *StateHandler) HandleGetRoomState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state, err := h.stateProvider.Snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get room state")
		http.Error(w, "Failed to get room state", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		log.Error().Err(err).Msg("failed to encode room state response")
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/room/state", h.HandleGetRoomState)
}
