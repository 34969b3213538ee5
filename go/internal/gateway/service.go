package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the room gateway: it accepts WebSocket clients, forwards their
// events to the room and pushes every state change back out.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// NewService creates a gateway over an existing connection manager. The
// manager is created first because the room controller broadcasts through it.
func NewService(cm *ConnectionManager, actions RoomActions) *Service {
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, actions),
		stateHandler:      NewStateHandler(actions),
	}
}

// Start runs the broadcast loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting room gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("room gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("room gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "room_gateway"
	return stats
}
