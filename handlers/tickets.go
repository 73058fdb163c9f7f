package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/commands"
	"support-bot/events"
	"support-bot/platform"
)

const (
	openTicketID      = "open_ticket"
	defaultCloseDelay = 5 * time.Second
)

const ticketMemberAllow = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionAttachFiles |
	discordgo.PermissionReadMessageHistory

// support posts the panel with the open-ticket button. No channel exists
// until someone presses it.
func (h *Handlers) support(_ context.Context, inv *commands.Invocation) error {
	embed := &discordgo.MessageEmbed{
		Title:       h.lang.T("support_title"),
		Description: h.lang.T("support_description"),
		Color:       0x00AE86,
		Footer:      &discordgo.MessageEmbedFooter{Text: h.lang.T("support_footer")},
	}
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			CustomID: openTicketID,
			Label:    h.lang.T("support_button"),
			Style:    discordgo.PrimaryButton,
		},
	}}

	_, err := h.client.SendComplex(inv.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{row},
	})
	if err != nil {
		h.reply(inv, "support_failed")
		return fmt.Errorf("post support panel: %w", err)
	}
	return nil
}

// openTicket creates a private channel for the member who pressed the
// button. Every press creates a new channel.
func (h *Handlers) openTicket(ctx context.Context, i *discordgo.InteractionCreate) {
	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}
	log := h.ticketLog.With(zap.String("guild", i.GuildID), zap.String("user", user.ID))

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: i.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: user.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: ticketMemberAllow},
	}
	if h.tickets.StaffRole != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    h.tickets.StaffRole,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: ticketMemberAllow,
		})
	}

	ch, err := h.client.CreateChannel(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 h.tickets.ChannelPrefix + user.Username,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             h.tickets.Category,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		log.Error("create ticket channel failed", zap.Error(err))
		h.respondEphemeral(i, h.lang.T("ticket_create_failed"))
		return
	}

	if _, err := h.send(ch.ID, "ticket_greeting", "user", user.Mention()); err != nil {
		log.Error("ticket greeting failed", zap.String("channel", ch.ID), zap.Error(err))
		h.respondEphemeral(i, h.lang.T("ticket_create_failed"))
		return
	}

	h.respondEphemeral(i, h.lang.T("ticket_created", "channel", ch.Mention()))
	h.publish(ctx, audit{
		typ:       events.TicketOpened,
		guildID:   i.GuildID,
		channelID: ch.ID,
		actor:     user,
		detail:    ch.Name,
	})
	log.Info("ticket opened", zap.String("channel", ch.ID), zap.String("name", ch.Name))
}

// closeTicket posts the countdown and schedules deletion. It returns
// without waiting for the channel to go away.
func (h *Handlers) closeTicket(ctx context.Context, inv *commands.Invocation) error {
	ch, err := h.client.Channel(inv.ChannelID)
	if err != nil {
		h.reply(inv, "ticket_close_failed")
		return fmt.Errorf("lookup channel %s: %w", inv.ChannelID, err)
	}
	if !strings.HasPrefix(ch.Name, h.tickets.ChannelPrefix) {
		h.reply(inv, "ticket_not_ticket")
		return nil
	}

	delay := h.tickets.CloseDelay()
	if delay <= 0 {
		delay = defaultCloseDelay
	}
	seconds := strconv.Itoa(int(delay.Seconds()))
	if _, err := h.send(inv.ChannelID, "ticket_closing", "seconds", seconds); err != nil {
		h.reply(inv, "ticket_close_failed")
		return fmt.Errorf("send countdown: %w", err)
	}

	h.publish(ctx, audit{
		typ:       events.TicketClosing,
		guildID:   inv.GuildID,
		channelID: inv.ChannelID,
		actor:     inv.Author,
		detail:    ch.Name,
	})

	guildID, channelID, name, actor := inv.GuildID, inv.ChannelID, ch.Name, inv.Author
	h.sched.After("close-ticket:"+channelID, delay, func(ctx context.Context) error {
		h.deleteTicket(ctx, audit{
			typ:       events.TicketClosed,
			guildID:   guildID,
			channelID: channelID,
			actor:     actor,
			detail:    name,
		})
		return nil
	})
	return nil
}

// deleteTicket finishes a close. The channel may have been removed in the
// meantime; that is not an error.
func (h *Handlers) deleteTicket(ctx context.Context, a audit) {
	log := h.ticketLog.With(zap.String("channel", a.channelID))

	if _, err := h.client.Channel(a.channelID); platform.IsNotFound(err) {
		log.Debug("ticket channel already gone")
		return
	}
	if err := h.client.DeleteChannel(a.channelID); err != nil {
		if platform.IsNotFound(err) {
			log.Debug("ticket channel already gone")
			return
		}
		log.Error("delete ticket channel failed", zap.Error(err))
		return
	}

	h.publish(ctx, a)
	log.Info("ticket closed", zap.String("name", a.detail))
}
