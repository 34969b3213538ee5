package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/room"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages the room's WebSocket connections and fans state
// snapshots out to all of them.
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	config ConnectionConfig

	broadcastCh chan room.State
}

// Connection represents a WebSocket connection to a client. ID doubles as the
// connection id the room keys players by.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	actions RoomActions

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	ActionTimeout   time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		ActionTimeout:   5 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan room.State, 1000),
	}
}

// Start begins processing broadcast messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case state := <-cm.broadcastCh:
			cm.handleBroadcast(state)
		}
	}
}

// Broadcast queues a snapshot for every connection. It never blocks; when the
// queue is full the snapshot is dropped since the next one supersedes it.
func (cm *ConnectionManager) Broadcast(state room.State) {
	select {
	case cm.broadcastCh <- state:
	default:
		log.Warn().Msg("broadcast channel full, dropping room state update")
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and attaches it
// to the room.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, actions RoomActions) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		actions:     actions,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	connection.greet()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return connection, nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection and reports whether it was still
// registered.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; !exists {
		return false
	}
	delete(cm.connections, conn)
	close(conn.Send)

	log.Info().Str("connection_id", conn.ID).Msg("connection unregistered")
	return true
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		conn.Conn.Close()
	}
}

func (cm *ConnectionManager) handleBroadcast(state room.State) {
	data, err := encodeState(state)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal room state for broadcast")
		return
	}

	// Snapshot the targets so the lock is not held while sending.
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		cm.deliver(conn, data)
	}

	log.Debug().
		Str("phase", string(state.Phase)).
		Int("connections", len(targets)).
		Msg("room state broadcasted")
}

// deliver queues data on conn, closing connections whose buffer is full.
func (cm *ConnectionManager) deliver(conn *Connection, data []byte) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.connections[conn] {
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		go conn.Conn.Close()
	}
}

// ConnectionCount returns the number of open connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	return map[string]interface{}{
		"total_connections": cm.ConnectionCount(),
	}
}

// greet tells the client its connection id and sends it the current state.
func (c *Connection) greet() {
	msg, err := NewMessage(EventTypeConnected, ConnectedPayload{SocketID: c.ID})
	if err == nil {
		var data []byte
		if data, err = json.Marshal(msg); err == nil {
			c.Manager.deliver(c, data)
		}
	}
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to encode connected message")
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.ActionTimeout)
	defer cancel()
	state, err := c.actions.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to load room state for new connection")
		return
	}
	data, err := encodeState(state)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal room state")
		return
	}
	c.Manager.deliver(c, data)
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump reads client events until the socket closes, then removes the
// player from the room.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
		c.leave()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage decodes and dispatches one client event. Rejected
// actions are dropped without a reply.
func (c *Connection) handleClientMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("malformed client message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.ActionTimeout)
	defer cancel()

	err := Dispatch(ctx, c.actions, c.ID, msg)
	switch {
	case err == nil:
	case errors.Is(err, room.ErrControllerStopped), errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Str("connection_id", c.ID).Str("event_type", string(msg.Type)).Msg("room unavailable")
	default:
		log.Debug().Err(err).Str("connection_id", c.ID).Str("event_type", string(msg.Type)).Msg("client event ignored")
	}
}

func (c *Connection) leave() {
	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.ActionTimeout)
	defer cancel()

	err := c.actions.Leave(ctx, c.ID)
	if err != nil && !errors.Is(err, room.ErrUnknownPlayer) {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to remove player on disconnect")
	}
}
