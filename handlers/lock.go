package handlers

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/commands"
	"support-bot/events"
)

// lockBits are the only permissions lock and unlock touch.
const lockBits = discordgo.PermissionSendMessages | discordgo.PermissionAddReactions

func (h *Handlers) lock(ctx context.Context, inv *commands.Invocation) error {
	if err := h.setEveryoneSend(inv, false); err != nil {
		h.reply(inv, "lock_failed")
		return err
	}
	h.logModAction(ctx, "lock", audit{
		typ:       events.ChannelLocked,
		guildID:   inv.GuildID,
		channelID: inv.ChannelID,
		actor:     inv.Author,
		detail:    "<#" + inv.ChannelID + ">",
	})
	_, err := h.send(inv.ChannelID, "lock_done")
	return err
}

func (h *Handlers) unlock(ctx context.Context, inv *commands.Invocation) error {
	if err := h.setEveryoneSend(inv, true); err != nil {
		h.reply(inv, "unlock_failed")
		return err
	}
	h.logModAction(ctx, "unlock", audit{
		typ:       events.ChannelUnlocked,
		guildID:   inv.GuildID,
		channelID: inv.ChannelID,
		actor:     inv.Author,
		detail:    "<#" + inv.ChannelID + ">",
	})
	_, err := h.send(inv.ChannelID, "unlock_done")
	return err
}

// setEveryoneSend rewrites the default role's overwrite on the channel,
// explicitly allowing or denying lockBits and keeping every other bit of
// that overwrite. The default role shares the guild's id.
func (h *Handlers) setEveryoneSend(inv *commands.Invocation, allowed bool) error {
	ch, err := h.client.Channel(inv.ChannelID)
	if err != nil {
		return fmt.Errorf("lookup channel %s: %w", inv.ChannelID, err)
	}

	var allow, deny int64
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == inv.GuildID && ow.Type == discordgo.PermissionOverwriteTypeRole {
			allow, deny = ow.Allow, ow.Deny
			break
		}
	}
	allow, deny = applyLock(allow, deny, allowed)

	err = h.client.SetChannelPermission(inv.ChannelID, inv.GuildID, discordgo.PermissionOverwriteTypeRole, allow, deny)
	if err != nil {
		h.modLog.Error("permission overwrite failed",
			zap.String("channel", inv.ChannelID),
			zap.Bool("allow", allowed),
			zap.Error(err),
		)
		return fmt.Errorf("set overwrite on %s: %w", inv.ChannelID, err)
	}
	return nil
}

func applyLock(allow, deny int64, allowed bool) (int64, int64) {
	if allowed {
		return allow | lockBits, deny &^ lockBits
	}
	return allow &^ lockBits, deny | lockBits
}
