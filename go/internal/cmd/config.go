package main

import (
	"fmt"
	"time"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/discord"
	"github.com/PepegaBot/horoj-haniya-final/go/internal/events"
	"github.com/alecthomas/kong"
)

// Config is the server configuration. Every flag falls back to an
// environment variable, which .env may populate.
type Config struct {
	Debug bool   `help:"Whether to enable debug logging." env:"DEBUG"`
	Port  string `help:"HTTP listen port." default:"3001" env:"PORT"`

	AdminDiscordID string `name:"admin-discord-id" help:"Discord user id granted admin rights." default:"217998454197190656" env:"ADMIN_DISCORD_ID"`
	PromptsFile    string `help:"YAML file with the built-in prompt deck. Uses the embedded deck when empty." env:"PROMPTS_FILE"`

	DiscordClientID     string        `name:"discord-client-id" help:"Discord OAuth application id." env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string        `name:"discord-client-secret" help:"Discord OAuth application secret." env:"DISCORD_CLIENT_SECRET"`
	DiscordTokenURL     string        `name:"discord-token-url" help:"Discord OAuth token endpoint." default:"https://discord.com/api/oauth2/token" env:"DISCORD_TOKEN_URL"`
	DiscordTimeout      time.Duration `name:"discord-timeout" help:"Timeout for the token exchange request." default:"30s" env:"DISCORD_TIMEOUT"`

	NATSURL           string `name:"nats-url" help:"NATS server to mirror room snapshots to. Disabled when empty." env:"NATS_URL"`
	NATSStream        string `name:"nats-stream" help:"JetStream stream for room snapshots." default:"ROOM_EVENTS" env:"NATS_STREAM"`
	NATSSubjectPrefix string `name:"nats-subject-prefix" help:"Subject prefix for room snapshots." default:"room.events" env:"NATS_SUBJECT_PREFIX"`

	AllowedOrigins []string `name:"allowed-origins" help:"CORS allowed origins." default:"*" env:"ALLOWED_ORIGINS"`
}

// parseConfig parses command line arguments (without the program name).
func parseConfig(args []string) (*Config, error) {
	var cfg Config
	parser, err := kong.New(&cfg,
		kong.Name("horoj-haniya"),
		kong.Description("Horoj Haniya party-game room server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to build CLI parser: %w", err)
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	return &cfg, nil
}

// OAuthEnabled reports whether both OAuth credentials are configured.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func (c *Config) discordConfig() discord.Config {
	return discord.Config{
		ClientID:     c.DiscordClientID,
		ClientSecret: c.DiscordClientSecret,
		TokenURL:     c.DiscordTokenURL,
		Timeout:      c.DiscordTimeout,
	}
}

func (c *Config) jetStreamConfig() events.JetStreamConfig {
	js := events.DefaultJetStreamConfig()
	js.URL = c.NATSURL
	js.StreamName = c.NATSStream
	js.SubjectPrefix = c.NATSSubjectPrefix
	return js
}
