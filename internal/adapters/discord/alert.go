package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	perr "modguard/internal/platform/errors"
	detdom "modguard/internal/services/detections/domain"
)

// Notify posts an embed describing the detection to the alert channel.
// A missing channel id disables alerting silently
func (c *Client) Notify(ctx context.Context, d detdom.Detection) error {
	if c.cfg.AlertChannelID == "" {
		return nil
	}
	embed := &discordgo.MessageEmbed{
		Title:       alertTitle(d),
		Description: alertReason(d),
		Color:       alertColor(d),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Scope", Value: d.ScopeID, Inline: true},
			{Name: "Score", Value: fmt.Sprintf("%.2f", d.Composite), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "detection " + d.ID},
	}
	if d.ActorID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Actor", Value: fmt.Sprintf("<@%s>", d.ActorID), Inline: true,
		})
	}
	_, err := c.sess.ChannelMessageSendEmbed(c.cfg.AlertChannelID, embed,
		discordgo.WithContext(ctx))
	if err != nil {
		return perr.Unavailablef("alert send: %v", err)
	}
	return nil
}

func alertTitle(d detdom.Detection) string {
	if d.Kind == detdom.KindRaid {
		return "Raid detected"
	}
	return "Spam detected"
}

// alertReason renders a moderator-readable summary of why the detection fired
func alertReason(d detdom.Detection) string {
	if d.Kind == detdom.KindRaid {
		joins := d.Details["joins"]
		return fmt.Sprintf("Coordinated join burst (%v joins in the raid window).", joins)
	}
	if len(d.ThreatKinds) == 0 {
		return "Combined behavior crossed the spam threshold."
	}
	names := make([]string, 0, len(d.ThreatKinds))
	for _, k := range d.ThreatKinds {
		names = append(names, strings.ReplaceAll(string(k), "_", " "))
	}
	return "Flagged for: " + strings.Join(names, ", ") + "."
}

func alertColor(d detdom.Detection) int {
	if d.Kind == detdom.KindRaid {
		return 0xE74C3C // red
	}
	return 0xF39C12 // amber
}
