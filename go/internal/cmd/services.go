package main

import (
	"fmt"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/discord"
	"github.com/PepegaBot/horoj-haniya-final/go/internal/events"
	"github.com/PepegaBot/horoj-haniya-final/go/internal/gateway"
	"github.com/PepegaBot/horoj-haniya-final/go/internal/prompts"
	"github.com/PepegaBot/horoj-haniya-final/go/internal/room"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Room    *room.Controller
	Gateway *gateway.Service
	Token   *discord.TokenHandler      // nil when OAuth is not configured
	Mirror  *events.JetStreamPublisher // nil when NATS is not configured
}

func setupServices(cfg *Config) (*Services, error) {
	// Prompt deck → room → broadcasters → controller → gateway
	deck, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}
	log.Info().Int("prompts", len(deck)).Str("file", cfg.PromptsFile).Msg("loaded prompt deck")

	rm := room.New(room.Config{
		AdminID:   cfg.AdminDiscordID,
		Durations: room.DefaultDurations(),
	}, room.NewSelector(deck, nil))

	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	broadcasters := room.Broadcasters{connections}

	services := &Services{}

	if cfg.NATSURL != "" {
		mirror, err := events.NewJetStreamPublisher(cfg.jetStreamConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create room event mirror: %w", err)
		}
		services.Mirror = mirror
		broadcasters = append(broadcasters, mirror)
		log.Info().Str("nats_url", cfg.NATSURL).Str("subject", mirror.Subject()).Msg("mirroring room state to JetStream")
	}

	scheduler := room.NewScheduler(clockwork.NewRealClock())
	services.Room = room.NewController(rm, scheduler, broadcasters)
	services.Gateway = gateway.NewService(connections, services.Room)

	if cfg.OAuthEnabled() {
		services.Token = discord.NewTokenHandler(discord.NewClient(cfg.discordConfig()))
	} else {
		log.Warn().Msg("Discord OAuth credentials missing; /api/token is disabled")
	}

	return services, nil
}

// Close releases external connections.
func (s *Services) Close() {
	if s.Mirror != nil {
		if err := s.Mirror.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close room event mirror")
		}
	}
}
