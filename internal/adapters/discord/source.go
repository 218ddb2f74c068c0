// Package discord adapts the engine's ports to the Discord gateway: event
// source, moderation actuator and alert sink over one shared session
package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"modguard/internal/core/event"
	perr "modguard/internal/platform/errors"
	"modguard/internal/platform/logger"
)

// Config holds the gateway credentials and alert routing
type Config struct {
	Token          string
	AlertChannelID string // empty disables alerts
}

// Client wraps one discordgo session implementing source, actuator and alert
type Client struct {
	sess *discordgo.Session
	cfg  Config
}

// New dials nothing yet; the websocket opens in Subscribe
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, perr.InvalidArgf("discord token required")
	}
	sess, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, perr.Unavailablef("discord session: %v", err)
	}
	sess.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent
	return &Client{sess: sess, cfg: cfg}, nil
}

// Subscribe opens the gateway and forwards normalized events to fn until
// ctx is done
func (c *Client) Subscribe(ctx context.Context, fn func(event.Event)) error {
	removeMsg := c.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || m.GuildID == "" {
			return
		}
		fn(messageEvent(m))
	})
	defer removeMsg()

	removeJoin := c.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.User == nil || m.GuildID == "" {
			return
		}
		fn(joinEvent(m))
	})
	defer removeJoin()

	if err := c.sess.Open(); err != nil {
		return perr.Unavailablef("discord gateway open: %v", err)
	}
	logger.Named("discord").Info().Msg("gateway connected")

	<-ctx.Done()
	if err := c.sess.Close(); err != nil {
		logger.Named("discord").Warn().Err(err).Msg("gateway close")
	}
	return ctx.Err()
}

func messageEvent(m *discordgo.MessageCreate) event.Event {
	var roles []string
	if m.Member != nil {
		roles = m.Member.Roles
	}
	at := m.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	return event.Event{
		Kind:         event.KindMessage,
		ScopeID:      m.GuildID,
		ActorID:      m.Author.ID,
		ChannelID:    m.ChannelID,
		MessageID:    m.ID,
		At:           at,
		Roles:        roles,
		Content:      m.Content,
		MentionCount: len(m.Mentions),
		MassMention:  m.MentionEveryone,
	}
}

func joinEvent(m *discordgo.GuildMemberAdd) event.Event {
	at := m.JoinedAt
	if at.IsZero() {
		at = time.Now()
	}
	var age time.Duration
	if created, err := discordgo.SnowflakeTimestamp(m.User.ID); err == nil {
		age = at.Sub(created)
	}
	return event.Event{
		Kind:       event.KindJoin,
		ScopeID:    m.GuildID,
		ActorID:    m.User.ID,
		At:         at,
		Username:   m.User.Username,
		AccountAge: age,
		HasAvatar:  m.User.Avatar != "",
		AvatarSet:  true,
	}
}
