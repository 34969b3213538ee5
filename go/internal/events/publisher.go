package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/room"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// EventTypeRoomStateUpdate is the only event type the room publishes.
const EventTypeRoomStateUpdate = "room_state_update"

type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration // How long to keep messages
	MaxMsgs         int64         // Max number of messages to keep
	Replicas        int
	DuplicateWindow time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "ROOM_EVENTS",
		SubjectPrefix:   "room.events",
		MaxReconnects:   -1, // Infinite
		ReconnectWait:   2 * time.Second,
		MaxAge:          time.Hour,
		MaxMsgs:         10000,
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
	}
}

// Envelope wraps a snapshot for the stream.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Phase     string          `json:"phase"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope encodes state as a room_state_update envelope.
func NewEnvelope(id uuid.UUID, state room.State, at time.Time) ([]byte, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal room state: %w", err)
	}
	return json.Marshal(Envelope{
		EventID:   id.String(),
		EventType: EventTypeRoomStateUpdate,
		Phase:     string(state.Phase),
		Timestamp: at.UTC(),
		Payload:   payload,
	})
}

// JetStreamPublisher mirrors room snapshots onto a JetStream stream so
// observers outside the websocket gateway can follow the game.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

func NewJetStreamPublisher(cfg JetStreamConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc, jetstream.WithPublishAsyncErrHandler(func(_ jetstream.JetStream, msg *nats.Msg, err error) {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("async publish to JetStream failed")
	}))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, config: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return p, nil
}

func (p *JetStreamPublisher) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Room state snapshots",
		Subjects:    []string{fmt.Sprintf("%s.>", p.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.config.MaxAge,
		MaxMsgs:     p.config.MaxMsgs,
		Storage:     jetstream.MemoryStorage,
		Replicas:    p.config.Replicas,
		Duplicates:  p.config.DuplicateWindow,
	}
}

func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	sc := p.streamConfig()

	stream, err := p.js.Stream(ctx, p.config.StreamName)
	if err != nil {
		if _, err = p.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", p.config.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !isStreamConfigEqual(info.Config, sc) {
		if _, err = p.js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", p.config.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

// Subject returns the subject snapshots are published on.
func (p *JetStreamPublisher) Subject() string {
	return fmt.Sprintf("%s.%s", p.config.SubjectPrefix, EventTypeRoomStateUpdate)
}

// Broadcast publishes state asynchronously. Failures are logged by the
// async error handler and never reach the room.
func (p *JetStreamPublisher) Broadcast(state room.State) {
	id := uuid.New()
	data, err := NewEnvelope(id, state, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to encode room state envelope")
		return
	}

	_, err = p.js.PublishMsgAsync(&nats.Msg{
		Subject: p.Subject(),
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{EventTypeRoomStateUpdate},
			"Event-ID":   []string{id.String()},
		},
	},
		jetstream.WithMsgID(id.String()),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		log.Warn().Err(err).Str("subject", p.Subject()).Msg("failed to queue room state for JetStream")
	}
}

// Connected reports whether the NATS connection is up.
func (p *JetStreamPublisher) Connected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

func isStreamConfigEqual(a, b jetstream.StreamConfig) bool {
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.MaxMsgs == b.MaxMsgs &&
		a.Replicas == b.Replicas &&
		a.Duplicates == b.Duplicates
}
