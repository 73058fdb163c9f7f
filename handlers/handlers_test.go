package handlers

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"support-bot/commands"
	"support-bot/config"
	"support-bot/events"
	"support-bot/lang"
	"support-bot/permissions"
	"support-bot/platform/platformtest"
	"support-bot/scheduler"
	"support-bot/storage"
)

const (
	guildID   = "g1"
	channelID = "c1"
)

var (
	start = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	msgs  = lang.Default()

	moderator = &discordgo.User{ID: "u-mod", Username: "mod"}
	member    = &discordgo.User{ID: "u-bob", Username: "bob"}
	admin     = &discordgo.User{ID: "u-admin", Username: "root"}
)

type fixture struct {
	t        *testing.T
	fake     *platformtest.Fake
	store    *storage.MemoryStore
	events   *events.Memory
	clock    *scheduler.ManualClock
	sched    *scheduler.Scheduler
	handlers *Handlers
	router   *commands.Router
	logs     *observer.ObservedLogs
	nextMsg  int
}

type option func(*Deps)

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	f := &fixture{
		t:      t,
		fake:   platformtest.New(),
		store:  storage.NewMemoryStore(),
		events: events.NewMemory(),
		clock:  scheduler.NewManualClock(start),
		logs:   logs,
	}
	f.sched = scheduler.New(f.clock, logger)

	cfg := config.Default()
	d := Deps{
		Client:     f.fake,
		Store:      f.store,
		Scheduler:  f.sched,
		Events:     f.events,
		Lang:       msgs,
		Logger:     logger,
		Tickets:    cfg.Tickets,
		Moderation: cfg.Moderation,
		Intn:       func(n int) int { return n - 1 },
	}
	for _, o := range opts {
		o(&d)
	}
	f.handlers = New(d)

	reg := commands.NewRegistry()
	reg.MustRegister(f.handlers.Commands()...)
	f.router = commands.NewRouter("!", reg, permissions.NewGate(f.fake), f.fake, msgs, logger)

	f.fake.AddChannel(&discordgo.Channel{ID: channelID, GuildID: guildID, Name: "general"})
	f.fake.Permissions[moderator.ID] = discordgo.PermissionManageMessages |
		discordgo.PermissionModerateMembers |
		discordgo.PermissionKickMembers |
		discordgo.PermissionBanMembers |
		discordgo.PermissionManageRoles |
		discordgo.PermissionManageChannels
	f.fake.Permissions[admin.ID] = discordgo.PermissionAdministrator
	f.fake.Permissions[member.ID] = discordgo.PermissionViewChannel
	return f
}

// say dispatches a message from author in channel.
func (f *fixture) say(author *discordgo.User, channel, content string, mentions ...*discordgo.User) *discordgo.MessageCreate {
	f.nextMsg++
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m" + strconv.Itoa(f.nextMsg),
		GuildID:   guildID,
		ChannelID: channel,
		Author:    author,
		Content:   content,
		Mentions:  mentions,
		Timestamp: f.clock.Now(),
	}}
	f.router.Dispatch(context.Background(), m)
	return m
}

func (f *fixture) sayRole(author *discordgo.User, content string, roles ...string) {
	f.nextMsg++
	f.router.Dispatch(context.Background(), &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:           "m" + strconv.Itoa(f.nextMsg),
		GuildID:      guildID,
		ChannelID:    channelID,
		Author:       author,
		Content:      content,
		MentionRoles: roles,
	}})
}

func (f *fixture) press(user *discordgo.User, customID string) *discordgo.InteractionCreate {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "i1",
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   guildID,
		ChannelID: channelID,
		Member:    &discordgo.Member{User: user},
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID},
	}}
	f.handlers.OnInteraction(context.Background(), i)
	return i
}

func (f *fixture) mutations() []string {
	var out []string
	for _, c := range f.fake.Calls {
		switch c.Method {
		case "DeleteMessage", "BulkDeleteMessages", "TimeoutMember", "KickMember", "BanMember",
			"AddMemberRole", "CreateChannel", "DeleteChannel", "SetChannelPermission":
			out = append(out, c.Method)
		}
	}
	return out
}

func TestSelfMessagesNeverDispatch(t *testing.T) {
	f := newFixture(t)
	bot := &discordgo.User{ID: "u-bot", Username: "helper", Bot: true}
	f.fake.Permissions[bot.ID] = discordgo.PermissionAdministrator

	for _, content := range []string{"!ping", "!clear 5", "!kick", "!support", "!lock"} {
		f.say(bot, channelID, content)
	}

	require.Empty(t, f.fake.Calls)
}

func TestPing(t *testing.T) {
	f := newFixture(t)
	f.say(member, channelID, "!PING")
	require.Equal(t, []string{"pong"}, f.fake.Replies())
}

func TestUnknownCommandIsSilent(t *testing.T) {
	f := newFixture(t)
	f.say(moderator, channelID, "!frobnicate now")
	f.say(moderator, channelID, "just chatting")
	require.Empty(t, f.fake.Calls)
}
