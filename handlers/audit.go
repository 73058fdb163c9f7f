package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/events"
	"support-bot/platform"
)

// audit is the record of one state change, published as an event and, for
// moderation actions, mirrored to the mod-log channel.
type audit struct {
	typ       events.Type
	guildID   string
	channelID string
	actor     *discordgo.User
	target    *discordgo.User
	targetID  string
	detail    string
}

func (h *Handlers) publish(ctx context.Context, a audit) {
	e := events.New(a.typ, h.now())
	e.GuildID = a.guildID
	e.ChannelID = a.channelID
	e.Detail = a.detail
	if a.actor != nil {
		e.ActorID = a.actor.ID
	}
	e.TargetID = a.targetID
	if a.target != nil {
		e.TargetID = a.target.ID
	}
	if err := h.events.Publish(ctx, e); err != nil {
		h.logger.Warn("publish event failed", zap.String("type", string(a.typ)), zap.Error(err))
	}
}

// logModAction publishes a and posts it to the mod-log channel when one is
// configured.
func (h *Handlers) logModAction(ctx context.Context, action string, a audit) {
	h.publish(ctx, a)

	if h.mod.LogChannel == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:     h.lang.T("modlog_title", "action", action),
		Color:     0xED4245,
		Timestamp: h.now().Format(time.RFC3339),
	}
	if a.target != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: h.lang.T("modlog_user"), Value: fmt.Sprintf("%s (`%s`)", platform.UserTag(a.target), a.target.ID), Inline: true,
		})
	}
	if a.actor != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: h.lang.T("modlog_moderator"), Value: fmt.Sprintf("%s (`%s`)", platform.UserTag(a.actor), a.actor.ID), Inline: true,
		})
	}
	if a.detail != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: h.lang.T("modlog_detail"), Value: a.detail})
	}

	if _, err := h.client.SendComplex(h.mod.LogChannel, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}); err != nil {
		h.modLog.Warn("mod log post failed", zap.String("channel", h.mod.LogChannel), zap.Error(err))
	}
}
