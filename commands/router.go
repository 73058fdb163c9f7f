package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/lang"
	"support-bot/permissions"
)

// Replier posts a reply to the invoking message.
type Replier interface {
	Reply(channelID, messageID, content string) (*discordgo.Message, error)
}

// Router dispatches guild messages to the registry. Every handler passes the
// same gate: capability, then arguments, then the action.
type Router struct {
	prefix   string
	registry *Registry
	gate     *permissions.Gate
	replier  Replier
	lang     *lang.Catalog
	logger   *zap.Logger
}

func NewRouter(prefix string, registry *Registry, gate *permissions.Gate, replier Replier, catalog *lang.Catalog, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		prefix:   prefix,
		registry: registry,
		gate:     gate,
		replier:  replier,
		lang:     catalog,
		logger:   logger.Named("router"),
	}
}

// Dispatch handles one gateway message. Bot authors, direct messages and
// unknown commands are ignored without a reply.
func (r *Router) Dispatch(ctx context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		return
	}
	cmd, ok := Parse(m.Content, r.prefix)
	if !ok {
		return
	}
	h, ok := r.registry.Lookup(cmd.Name)
	if !ok {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("command panicked",
				zap.String("command", cmd.Name),
				zap.String("channel", m.ChannelID),
				zap.Any("panic", rec),
			)
		}
	}()
	r.Run(ctx, h, NewInvocation(m.Message, cmd))
}

// Run authorizes inv against h and runs the action.
func (r *Router) Run(ctx context.Context, h Handler, inv *Invocation) {
	log := r.logger.With(
		zap.String("command", h.Name),
		zap.String("guild", inv.GuildID),
		zap.String("channel", inv.ChannelID),
		zap.String("user", inv.Author.ID),
	)

	allowed, err := r.gate.Check(inv.Author.ID, inv.ChannelID, h.Capability)
	if err != nil {
		log.Warn("permission lookup failed", zap.Error(err))
	}
	if !allowed {
		log.Debug("denied", zap.Stringer("capability", h.Capability))
		r.reply(inv, r.lang.T(h.Denied))
		return
	}

	if key := h.Args.check(inv); key != "" {
		r.reply(inv, r.lang.T(key))
		return
	}

	if err := h.Action(ctx, inv); err != nil {
		log.Error("command failed", zap.Error(err))
		return
	}
	log.Debug("command done")
}

func (r *Router) reply(inv *Invocation, text string) {
	if _, err := r.replier.Reply(inv.ChannelID, inv.MessageID, text); err != nil {
		r.logger.Warn("reply failed", zap.String("channel", inv.ChannelID), zap.Error(err))
	}
}
