// Package commands turns chat messages into handler invocations.
package commands

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"support-bot/permissions"
)

// Command is a parsed message: the lower-cased name without prefix and the
// remaining whitespace-separated tokens.
type Command struct {
	Name string
	Args []string
}

// Parse extracts a command from content. It reports false when content does
// not start with prefix or names nothing.
func Parse(content, prefix string) (Command, bool) {
	fields := strings.Fields(content)
	if prefix == "" || len(fields) == 0 || !strings.HasPrefix(fields[0], prefix) {
		return Command{}, false
	}
	name := strings.ToLower(fields[0][len(prefix):])
	if name == "" {
		return Command{}, false
	}
	return Command{Name: name, Args: fields[1:]}, true
}

// Invocation is everything a handler needs about the message that ran it.
type Invocation struct {
	Command

	GuildID   string
	ChannelID string
	MessageID string
	Author    *discordgo.User

	// Mentions and MentionRoles come from the message in platform order.
	Mentions     []*discordgo.User
	MentionRoles []string

	// Filled by ArgSpec before the action runs.
	Target *discordgo.User
	RoleID string
	Number int
}

// Rest joins the arguments from index i on.
func (inv *Invocation) Rest(i int) string {
	if i >= len(inv.Args) {
		return ""
	}
	return strings.Join(inv.Args[i:], " ")
}

// NewInvocation builds an invocation from a gateway message.
func NewInvocation(m *discordgo.Message, cmd Command) *Invocation {
	inv := &Invocation{
		Command:      cmd,
		GuildID:      m.GuildID,
		ChannelID:    m.ChannelID,
		MessageID:    m.ID,
		Author:       m.Author,
		Mentions:     m.Mentions,
		MentionRoles: m.MentionRoles,
	}
	return inv
}

// Mention says which mention an action needs.
type Mention int

const (
	NoMention Mention = iota
	UserMention
	RoleMention
)

// ArgSpec describes the arguments an action accepts. Usage is the message
// key replied when they are missing.
type ArgSpec struct {
	Mention Mention
	MinArgs int
	Usage   string
	// Validate runs after the mention and count checks. A non-empty return
	// is the message key to reply with instead of running the action.
	Validate func(inv *Invocation) string
}

// check resolves mentions into inv and returns the usage key on failure.
func (a ArgSpec) check(inv *Invocation) string {
	switch a.Mention {
	case UserMention:
		if len(inv.Mentions) == 0 {
			return a.Usage
		}
		inv.Target = inv.Mentions[0]
	case RoleMention:
		if len(inv.MentionRoles) == 0 {
			return a.Usage
		}
		inv.RoleID = inv.MentionRoles[0]
	}
	if len(inv.Args) < a.MinArgs {
		return a.Usage
	}
	if a.Validate != nil {
		return a.Validate(inv)
	}
	return ""
}

// Action performs a command. Returned errors are logged by the router;
// user-facing failure replies are the action's own job.
type Action func(ctx context.Context, inv *Invocation) error

// Handler is one entry in the command table.
type Handler struct {
	Name       string
	Capability permissions.Capability
	// Denied is the message key replied when the author lacks Capability.
	Denied string
	Args   ArgSpec
	Action Action
}
