package channels

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/leadline-ai/leadline/pkg/bus"
	"github.com/leadline-ai/leadline/pkg/logger"
)

// DiscordConfig holds bot credentials.
type DiscordConfig struct {
	Token     string   `json:"token"`
	AllowList []string `json:"allow_list,omitempty"`
}

// DiscordChannel receives prospect messages over the Discord gateway.
type DiscordChannel struct {
	*BaseChannel
	session *discordgo.Session
}

func NewDiscordChannel(cfg DiscordConfig, b *bus.MessageBus) (*DiscordChannel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord channel requires a token")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	c := &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", b, cfg.AllowList),
		session:     session,
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	session.AddHandler(c.onMessage)
	return c, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("discord gateway: %w", err)
	}
	c.SetRunning(true)
	logger.InfoC("discord", "Channel started")
	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	c.SetRunning(false)
	return c.session.Close()
}

func (c *DiscordChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	_, err := c.session.ChannelMessageSend(msg.ChatID, msg.Content)
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

func (c *DiscordChannel) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	senderID := m.Author.ID
	if m.Author.Username != "" {
		senderID = m.Author.ID + "|" + m.Author.Username
	}
	c.HandleMessage(senderID, m.ChannelID, m.Content, map[string]string{
		"guild_id": m.GuildID,
	})
}
