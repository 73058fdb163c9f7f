package platform

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord implements Client on a live gateway session.
type Discord struct {
	s *discordgo.Session
}

func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{s: s}
}

func (d *Discord) SendMessage(channelID, content string) (*discordgo.Message, error) {
	return d.s.ChannelMessageSend(channelID, content)
}

func (d *Discord) SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return d.s.ChannelMessageSendComplex(channelID, data)
}

func (d *Discord) Reply(channelID, messageID, content string) (*discordgo.Message, error) {
	return d.s.ChannelMessageSendReply(channelID, content, &discordgo.MessageReference{
		MessageID: messageID,
		ChannelID: channelID,
	})
}

func (d *Discord) DeleteMessage(channelID, messageID string) error {
	return d.s.ChannelMessageDelete(channelID, messageID)
}

func (d *Discord) RecentMessages(channelID string, limit int) ([]*discordgo.Message, error) {
	return d.s.ChannelMessages(channelID, limit, "", "", "")
}

func (d *Discord) BulkDeleteMessages(channelID string, messageIDs []string) error {
	return d.s.ChannelMessagesBulkDelete(channelID, messageIDs)
}

func (d *Discord) TimeoutMember(guildID, userID string, until time.Time, reason string) error {
	return d.s.GuildMemberTimeout(guildID, userID, &until, discordgo.WithAuditLogReason(reason))
}

func (d *Discord) KickMember(guildID, userID, reason string) error {
	return d.s.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (d *Discord) BanMember(guildID, userID, reason string) error {
	return d.s.GuildBanCreateWithReason(guildID, userID, reason, 0)
}

func (d *Discord) AddMemberRole(guildID, userID, roleID string) error {
	return d.s.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (d *Discord) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	if g, err := d.s.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
		return g.Roles, nil
	}
	return d.s.GuildRoles(guildID)
}

// MemberPermissions prefers the gateway cache, which the gateway keeps
// current, and falls back to REST when the member or channel is not cached.
func (d *Discord) MemberPermissions(userID, channelID string) (int64, error) {
	if perms, err := d.s.State.UserChannelPermissions(userID, channelID); err == nil {
		return perms, nil
	}
	return d.s.UserChannelPermissions(userID, channelID)
}

func (d *Discord) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := d.s.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return d.s.Channel(channelID)
}

func (d *Discord) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	return d.s.GuildChannelCreateComplex(guildID, data)
}

func (d *Discord) DeleteChannel(channelID string) error {
	_, err := d.s.ChannelDelete(channelID)
	return err
}

func (d *Discord) SetChannelPermission(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error {
	return d.s.ChannelPermissionSet(channelID, targetID, targetType, allow, deny)
}

func (d *Discord) RespondInteraction(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return d.s.InteractionRespond(interaction, resp)
}
