// Package permissions decides whether a member may run a privileged action.
// Nothing is cached: every check asks the platform for the member's current
// bits.
package permissions

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Capability is a permission a command requires.
type Capability int64

const (
	None            Capability = 0
	ManageMessages  Capability = discordgo.PermissionManageMessages
	ModerateMembers Capability = discordgo.PermissionModerateMembers
	KickMembers     Capability = discordgo.PermissionKickMembers
	BanMembers      Capability = discordgo.PermissionBanMembers
	ManageRoles     Capability = discordgo.PermissionManageRoles
	ManageChannels  Capability = discordgo.PermissionManageChannels
	Administrator   Capability = discordgo.PermissionAdministrator
)

func (c Capability) String() string {
	switch c {
	case None:
		return "none"
	case ManageMessages:
		return "ManageMessages"
	case ModerateMembers:
		return "ModerateMembers"
	case KickMembers:
		return "KickMembers"
	case BanMembers:
		return "BanMembers"
	case ManageRoles:
		return "ManageRoles"
	case ManageChannels:
		return "ManageChannels"
	case Administrator:
		return "Administrator"
	}
	return fmt.Sprintf("Capability(%d)", int64(c))
}

// Source reports a member's effective permission bits in a channel.
type Source interface {
	MemberPermissions(userID, channelID string) (int64, error)
}

// Gate checks capabilities against a Source.
type Gate struct {
	src Source
}

func NewGate(src Source) *Gate {
	return &Gate{src: src}
}

// Check reports whether userID holds c in channelID. None always passes
// without a lookup. On error the result is false.
func (g *Gate) Check(userID, channelID string, c Capability) (bool, error) {
	if c == None {
		return true, nil
	}
	perms, err := g.src.MemberPermissions(userID, channelID)
	if err != nil {
		return false, fmt.Errorf("permissions for %s in %s: %w", userID, channelID, err)
	}
	return Has(perms, c), nil
}

// Has reports whether perms grants c. Administrator grants everything.
func Has(perms int64, c Capability) bool {
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return perms&int64(c) == int64(c)
}
