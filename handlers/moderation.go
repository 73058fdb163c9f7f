package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"support-bot/commands"
	"support-bot/events"
	"support-bot/platform"
)

const (
	maxClear = 100
	// The platform refuses bulk deletes of messages older than two weeks.
	bulkDeleteWindow = 14 * 24 * time.Hour
	// Longest timeout the platform accepts.
	maxTimeoutMinutes = 28 * 24 * 60
)

func validateClear(inv *commands.Invocation) string {
	n, err := strconv.Atoi(inv.Args[0])
	if err != nil || n < 1 || n > maxClear {
		return "usage_clear"
	}
	inv.Number = n
	return ""
}

func validateTimeout(inv *commands.Invocation) string {
	n, err := strconv.Atoi(inv.Args[1])
	if err != nil || n < 1 {
		return "usage_timeout"
	}
	if n > maxTimeoutMinutes {
		return "usage_timeout_max"
	}
	inv.Number = n
	return ""
}

func (h *Handlers) clear(ctx context.Context, inv *commands.Invocation) error {
	msgs, err := h.client.RecentMessages(inv.ChannelID, inv.Number)
	if err != nil {
		h.reply(inv, "clear_failed")
		return fmt.Errorf("fetch messages: %w", err)
	}

	cutoff := h.now().Add(-bulkDeleteWindow)
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ts := m.Timestamp
		if ts.IsZero() {
			ts = snowflakeTime(m.ID)
		}
		if ts.After(cutoff) {
			ids = append(ids, m.ID)
		}
	}

	switch len(ids) {
	case 0:
	case 1:
		err = h.client.DeleteMessage(inv.ChannelID, ids[0])
	default:
		err = h.client.BulkDeleteMessages(inv.ChannelID, ids)
	}
	if err != nil {
		h.reply(inv, "clear_failed")
		return fmt.Errorf("delete %d messages: %w", len(ids), err)
	}

	h.logModAction(ctx, "clear", audit{
		typ:       events.ModerationClear,
		guildID:   inv.GuildID,
		channelID: inv.ChannelID,
		actor:     inv.Author,
		detail:    strconv.Itoa(len(ids)),
	})

	confirm, err := h.send(inv.ChannelID, "clear_done", "count", strconv.Itoa(len(ids)))
	if err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	h.expire(inv.ChannelID, confirm.ID)
	return nil
}

// expire deletes a confirmation message after the configured delay. The
// message may already be gone by then.
func (h *Handlers) expire(channelID, messageID string) {
	ttl := h.mod.ConfirmationTTL()
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	h.sched.After("expire-confirmation:"+messageID, ttl, func(context.Context) error {
		err := h.client.DeleteMessage(channelID, messageID)
		if err != nil && !platform.IsNotFound(err) {
			return fmt.Errorf("delete confirmation %s: %w", messageID, err)
		}
		return nil
	})
}

func (h *Handlers) timeout(ctx context.Context, inv *commands.Invocation) error {
	minutes := inv.Number
	until := h.now().Add(time.Duration(minutes) * time.Minute)
	reason := h.lang.T("timeout_reason", "moderator", platform.UserTag(inv.Author))

	if err := h.client.TimeoutMember(inv.GuildID, inv.Target.ID, until, reason); err != nil {
		h.modLog.Error("timeout failed",
			zap.String("guild", inv.GuildID),
			zap.String("target", inv.Target.ID),
			zap.Error(err),
		)
		h.reply(inv, "timeout_failed")
		return nil
	}

	h.logModAction(ctx, "timeout", audit{
		typ:       events.ModerationTimeout,
		guildID:   inv.GuildID,
		channelID: inv.ChannelID,
		actor:     inv.Author,
		target:    inv.Target,
		detail:    strconv.Itoa(minutes) + "m",
	})
	_, err := h.send(inv.ChannelID, "timeout_done", "user", platform.UserTag(inv.Target), "minutes", strconv.Itoa(minutes))
	return err
}

func (h *Handlers) kick(ctx context.Context, inv *commands.Invocation) error {
	reason := h.lang.T("kick_reason", "moderator", platform.UserTag(inv.Author))
	if err := h.client.KickMember(inv.GuildID, inv.Target.ID, reason); err != nil {
		h.modLog.Error("kick failed",
			zap.String("guild", inv.GuildID),
			zap.String("target", inv.Target.ID),
			zap.Error(err),
		)
		h.reply(inv, "kick_failed")
		return nil
	}

	h.logModAction(ctx, "kick", audit{
		typ:       events.ModerationKick,
		guildID:   inv.GuildID,
		channelID: inv.ChannelID,
		actor:     inv.Author,
		target:    inv.Target,
		detail:    reason,
	})
	_, err := h.send(inv.ChannelID, "kick_done", "user", platform.UserTag(inv.Target))
	return err
}

func (h *Handlers) ban(ctx context.Context, inv *commands.Invocation) error {
	reason := h.lang.T("ban_reason", "moderator", platform.UserTag(inv.Author))
	if err := h.client.BanMember(inv.GuildID, inv.Target.ID, reason); err != nil {
		h.modLog.Error("ban failed",
			zap.String("guild", inv.GuildID),
			zap.String("target", inv.Target.ID),
			zap.Error(err),
		)
		h.reply(inv, "ban_failed")
		return nil
	}

	h.logModAction(ctx, "ban", audit{
		typ:       events.ModerationBan,
		guildID:   inv.GuildID,
		channelID: inv.ChannelID,
		actor:     inv.Author,
		target:    inv.Target,
		detail:    reason,
	})
	_, err := h.send(inv.ChannelID, "ban_done", "user", platform.UserTag(inv.Target))
	return err
}

// warn only announces. Nothing is recorded.
func (h *Handlers) warn(_ context.Context, inv *commands.Invocation) error {
	_, err := h.send(inv.ChannelID, "warn_done", "user", platform.UserTag(inv.Target), "reason", inv.Rest(1))
	return err
}

func snowflakeTime(id string) time.Time {
	n, _ := strconv.ParseInt(id, 10, 64)
	ms := (n >> 22) + 1420070400000
	return time.Unix(ms/1000, (ms%1000)*1e6)
}
