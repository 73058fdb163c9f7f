package handlers

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/commands"
	"support-bot/events"
)

func (h *Handlers) setJoinRole(ctx context.Context, inv *commands.Invocation) error {
	if err := h.store.Set(ctx, inv.RoleID); err != nil {
		h.reply(inv, "joinrole_failed")
		return fmt.Errorf("save join role: %w", err)
	}

	name := "<@&" + inv.RoleID + ">"
	if role := h.findRole(inv.GuildID, inv.RoleID); role != nil {
		name = role.Name
	}

	h.publish(ctx, audit{
		typ:       events.JoinRoleSet,
		guildID:   inv.GuildID,
		channelID: inv.ChannelID,
		actor:     inv.Author,
		targetID:  inv.RoleID,
		detail:    name,
	})
	_, err := h.send(inv.ChannelID, "joinrole_done", "role", name)
	return err
}

// OnMemberJoin gives a new member the configured join role. Nothing here
// can fail the join: every problem is logged and dropped.
func (h *Handlers) OnMemberJoin(ctx context.Context, m *discordgo.GuildMemberAdd) {
	defer h.guard("member join")

	if m == nil || m.Member == nil || m.User == nil {
		return
	}
	log := h.roleLog.With(zap.String("guild", m.GuildID), zap.String("user", m.User.ID))

	cfg, err := h.store.Get(ctx)
	if err != nil {
		log.Warn("join role unreadable; skipping", zap.Error(err))
		return
	}
	if !cfg.Enabled() {
		return
	}

	roles, err := h.client.GuildRoles(m.GuildID)
	if err != nil {
		log.Error("list roles failed", zap.Error(err))
		return
	}
	role := roleByID(roles, cfg.RoleID)
	if role == nil {
		log.Warn("join role not found", zap.String("role", cfg.RoleID))
		return
	}

	if err := h.client.AddMemberRole(m.GuildID, m.User.ID, role.ID); err != nil {
		log.Error("assign join role failed", zap.String("role", role.ID), zap.Error(err))
		return
	}

	h.publish(ctx, audit{
		typ:      events.JoinRoleAssigned,
		guildID:  m.GuildID,
		target:   m.User,
		targetID: role.ID,
		detail:   role.Name,
	})
	log.Info("assigned join role", zap.String("role", role.Name))
}

func (h *Handlers) findRole(guildID, roleID string) *discordgo.Role {
	roles, err := h.client.GuildRoles(guildID)
	if err != nil {
		h.roleLog.Debug("list roles failed", zap.String("guild", guildID), zap.Error(err))
		return nil
	}
	return roleByID(roles, roleID)
}

func roleByID(roles []*discordgo.Role, id string) *discordgo.Role {
	for _, r := range roles {
		if r.ID == id {
			return r
		}
	}
	return nil
}
