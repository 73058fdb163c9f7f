// Package handlers implements the bot's commands, the ticket button and the
// member-join hook on top of platform.Client.
package handlers

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/commands"
	"support-bot/config"
	"support-bot/events"
	"support-bot/lang"
	"support-bot/permissions"
	"support-bot/platform"
	"support-bot/scheduler"
	"support-bot/storage"
)

// Deps are the collaborators every handler shares.
type Deps struct {
	Client     platform.Client
	Store      storage.JoinRoleStore
	Scheduler  *scheduler.Scheduler
	Events     events.Publisher
	Lang       *lang.Catalog
	Logger     *zap.Logger
	Tickets    config.TicketsConfig
	Moderation config.ModerationConfig
	// Intn returns a value in [0, n). Defaults to math/rand.
	Intn func(n int) int
}

type Handlers struct {
	client    platform.Client
	store     storage.JoinRoleStore
	sched     *scheduler.Scheduler
	events    events.Publisher
	lang      *lang.Catalog
	tickets   config.TicketsConfig
	mod       config.ModerationConfig
	intn      func(n int) int
	logger    *zap.Logger
	ticketLog *zap.Logger
	modLog    *zap.Logger
	roleLog   *zap.Logger
}

func New(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Lang == nil {
		d.Lang = lang.Default()
	}
	if d.Intn == nil {
		d.Intn = rand.IntN
	}
	if d.Scheduler == nil {
		d.Scheduler = scheduler.New(scheduler.RealClock{}, d.Logger)
	}
	if d.Tickets.ChannelPrefix == "" {
		d.Tickets.ChannelPrefix = "ticket-"
	}
	return &Handlers{
		client:    d.Client,
		store:     d.Store,
		sched:     d.Scheduler,
		events:    d.Events,
		lang:      d.Lang,
		tickets:   d.Tickets,
		mod:       d.Moderation,
		intn:      d.Intn,
		logger:    d.Logger,
		ticketLog: d.Logger.Named("tickets"),
		modLog:    d.Logger.Named("moderation"),
		roleLog:   d.Logger.Named("joinrole"),
	}
}

// Commands is the full command table.
func (h *Handlers) Commands() []commands.Handler {
	return []commands.Handler{
		{Name: "ping", Action: h.ping},
		{
			Name:       "clear",
			Capability: permissions.ManageMessages,
			Denied:     "deny_clear",
			Args:       commands.ArgSpec{MinArgs: 1, Usage: "usage_clear", Validate: validateClear},
			Action:     h.clear,
		},
		{
			Name:       "timeout",
			Capability: permissions.ModerateMembers,
			Denied:     "deny_timeout",
			Args:       commands.ArgSpec{Mention: commands.UserMention, MinArgs: 2, Usage: "usage_timeout", Validate: validateTimeout},
			Action:     h.timeout,
		},
		{
			Name:       "kick",
			Capability: permissions.KickMembers,
			Denied:     "deny_kick",
			Args:       commands.ArgSpec{Mention: commands.UserMention, Usage: "usage_kick"},
			Action:     h.kick,
		},
		{
			Name:       "ban",
			Capability: permissions.BanMembers,
			Denied:     "deny_ban",
			Args:       commands.ArgSpec{Mention: commands.UserMention, Usage: "usage_ban"},
			Action:     h.ban,
		},
		{
			Name:   "warn",
			Args:   commands.ArgSpec{Mention: commands.UserMention, MinArgs: 2, Usage: "usage_warn"},
			Action: h.warn,
		},
		{Name: "roll", Action: h.roll},
		{Name: "flip", Action: h.flip},
		{
			Name:   "8ball",
			Args:   commands.ArgSpec{MinArgs: 1, Usage: "usage_8ball"},
			Action: h.eightBall,
		},
		{
			Name:       "setjoinrole",
			Capability: permissions.ManageRoles,
			Denied:     "deny_setjoinrole",
			Args:       commands.ArgSpec{Mention: commands.RoleMention, Usage: "usage_setjoinrole"},
			Action:     h.setJoinRole,
		},
		{
			Name:       "support",
			Capability: permissions.Administrator,
			Denied:     "deny_support",
			Action:     h.support,
		},
		// !close is gated by the channel name, not a capability.
		{Name: "close", Action: h.closeTicket},
		{
			Name:       "lock",
			Capability: permissions.ManageChannels,
			Denied:     "deny_lock",
			Action:     h.lock,
		},
		{
			Name:       "unlock",
			Capability: permissions.ManageChannels,
			Denied:     "deny_unlock",
			Action:     h.unlock,
		},
	}
}

// Register wires the gateway events to the router and handlers. ctx is
// handed to every handler and should be cancelled at shutdown.
func Register(ctx context.Context, s *discordgo.Session, router *commands.Router, h *Handlers) {
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		router.Dispatch(ctx, m)
	})
	s.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		h.OnInteraction(ctx, i)
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		h.OnMemberJoin(ctx, m)
	})
}

// OnInteraction handles component interactions. Only the ticket button is
// known; everything else is ignored.
func (h *Handlers) OnInteraction(ctx context.Context, i *discordgo.InteractionCreate) {
	defer h.guard("interaction")

	if i == nil || i.Interaction == nil || i.GuildID == "" {
		return
	}
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	switch i.MessageComponentData().CustomID {
	case openTicketID:
		h.openTicket(ctx, i)
	}
}

func (h *Handlers) guard(where string) {
	if r := recover(); r != nil {
		h.logger.Error("handler panicked", zap.String("event", where), zap.Any("panic", r))
	}
}

func (h *Handlers) now() time.Time { return h.sched.Clock().Now() }

// reply answers the invoking message.
func (h *Handlers) reply(inv *commands.Invocation, key string, pairs ...string) {
	if _, err := h.client.Reply(inv.ChannelID, inv.MessageID, h.lang.T(key, pairs...)); err != nil {
		h.logger.Warn("reply failed", zap.String("channel", inv.ChannelID), zap.String("key", key), zap.Error(err))
	}
}

// send posts to the channel without referencing the command.
func (h *Handlers) send(channelID, key string, pairs ...string) (*discordgo.Message, error) {
	return h.client.SendMessage(channelID, h.lang.T(key, pairs...))
}

func (h *Handlers) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := h.client.RespondInteraction(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Warn("interaction response failed", zap.String("interaction", i.ID), zap.Error(err))
	}
}
