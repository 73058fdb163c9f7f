// Package bot owns the gateway session.
package bot

import (
	"context"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/config"
)

// Intents the bot needs: guild and channel data, message text for commands,
// and member joins for the join role.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildMembers

type Bot struct {
	Session *discordgo.Session
	Config  *config.Config

	logger  *zap.Logger
	ready   chan struct{}
	isReady atomic.Bool
}

func New(cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = Intents
	// One event at a time, in arrival order.
	s.SyncEvents = true

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		Session: s,
		Config:  cfg,
		logger:  logger.Named("bot"),
		ready:   make(chan struct{}),
	}, nil
}

func (b *Bot) Start() error {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("online",
			zap.String("user", r.User.Username),
			zap.Int("guilds", len(r.Guilds)),
		)
		b.isReady.Store(true)
		select {
		case <-b.ready:
		default:
			close(b.ready)
		}
	})
	b.Session.AddHandler(func(s *discordgo.Session, _ *discordgo.Disconnect) {
		b.logger.Warn("gateway disconnected")
		b.isReady.Store(false)
	})
	b.Session.AddHandler(func(s *discordgo.Session, _ *discordgo.Resumed) {
		b.logger.Info("gateway resumed")
		b.isReady.Store(true)
	})
	return b.Session.Open()
}

// WaitReady blocks until the first Ready event or ctx ends.
func (b *Bot) WaitReady(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the gateway session is currently usable.
func (b *Bot) Ready() bool { return b.isReady.Load() }

func (b *Bot) Stop() {
	b.isReady.Store(false)
	if err := b.Session.Close(); err != nil {
		b.logger.Warn("close session", zap.Error(err))
	}
}
