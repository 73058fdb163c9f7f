// Package platform is the boundary between the bot and the chat platform.
// Handlers depend on Client; production wires Discord, tests wire
// platformtest.Fake.
package platform

import (
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Client is every platform call the bot makes.
type Client interface {
	SendMessage(channelID, content string) (*discordgo.Message, error)
	SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	// Reply posts content as a reply to messageID.
	Reply(channelID, messageID, content string) (*discordgo.Message, error)
	DeleteMessage(channelID, messageID string) error
	RecentMessages(channelID string, limit int) ([]*discordgo.Message, error)
	BulkDeleteMessages(channelID string, messageIDs []string) error

	TimeoutMember(guildID, userID string, until time.Time, reason string) error
	KickMember(guildID, userID, reason string) error
	BanMember(guildID, userID, reason string) error
	AddMemberRole(guildID, userID, roleID string) error
	GuildRoles(guildID string) ([]*discordgo.Role, error)
	// MemberPermissions returns the effective permission bits of userID in
	// channelID. It must reflect the platform's current view on every call.
	MemberPermissions(userID, channelID string) (int64, error)

	Channel(channelID string) (*discordgo.Channel, error)
	CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)
	DeleteChannel(channelID string) error
	SetChannelPermission(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error

	RespondInteraction(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error
}

// IsNotFound reports whether err is the platform saying the target no longer
// exists (unknown message, channel, member).
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode == http.StatusNotFound
	}
	return false
}

// ErrNotFound is returned by clients that resolve lookups locally.
var ErrNotFound = errors.New("platform: not found")

// UserTag renders a user the way moderators expect to read it.
func UserTag(u *discordgo.User) string {
	if u == nil {
		return "unknown"
	}
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}
