package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	perr "modguard/internal/platform/errors"
)

// muteDuration is how long an auto-mute timeout lasts
const muteDuration = 10 * time.Minute

// DeleteMessage removes one message
func (c *Client) DeleteMessage(ctx context.Context, _, channelID, messageID string) error {
	err := c.sess.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return perr.Actuatorf("delete message %s: %v", messageID, err)
	}
	return nil
}

// MuteActor applies a communication timeout
func (c *Client) MuteActor(ctx context.Context, scopeID, actorID, _ string) error {
	until := time.Now().Add(muteDuration)
	err := c.sess.GuildMemberTimeout(scopeID, actorID, &until, discordgo.WithContext(ctx))
	if err != nil {
		return perr.Actuatorf("mute actor %s: %v", actorID, err)
	}
	return nil
}

// KickActor removes the member from the guild
func (c *Client) KickActor(ctx context.Context, scopeID, actorID, reason string) error {
	err := c.sess.GuildMemberDeleteWithReason(scopeID, actorID, reason, discordgo.WithContext(ctx))
	if err != nil {
		return perr.Actuatorf("kick actor %s: %v", actorID, err)
	}
	return nil
}
