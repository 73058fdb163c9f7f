package commands

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"support-bot/lang"
	"support-bot/permissions"
	"support-bot/platform/platformtest"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Command
		ok   bool
	}{
		{"!ping", Command{Name: "ping", Args: []string{}}, true},
		{"  !CLEAR   10  ", Command{Name: "clear", Args: []string{"10"}}, true},
		{"!warn <@1> being   rude", Command{Name: "warn", Args: []string{"<@1>", "being", "rude"}}, true},
		{"ping", Command{}, false},
		{"!", Command{}, false},
		{"! ping", Command{}, false},
		{"", Command{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in, "!")
			require.Equal(t, tt.ok, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context, *Invocation) error { return nil }

	require.NoError(t, r.Register(Handler{Name: "Ping", Action: noop}))
	require.Error(t, r.Register(Handler{Name: "ping", Action: noop}))
	require.Error(t, r.Register(Handler{Name: "", Action: noop}))
	require.Error(t, r.Register(Handler{Name: "x"}))

	h, ok := r.Lookup("PING")
	require.True(t, ok)
	assert.Equal(t, "ping", h.Name)
	assert.Equal(t, []string{"ping"}, r.Names())
	assert.Panics(t, func() { r.MustRegister(Handler{Name: "ping", Action: noop}) })
}

type routerFixture struct {
	fake   *platformtest.Fake
	router *Router
	ran    []*Invocation
	logs   *observer.ObservedLogs
}

func newRouterFixture(t *testing.T, hs ...Handler) *routerFixture {
	t.Helper()
	f := &routerFixture{fake: platformtest.New()}
	reg := NewRegistry()
	for _, h := range hs {
		action := h.Action
		h.Action = func(ctx context.Context, inv *Invocation) error {
			f.ran = append(f.ran, inv)
			if action != nil {
				return action(ctx, inv)
			}
			return nil
		}
		require.NoError(t, reg.Register(h))
	}
	core, logs := observer.New(zap.DebugLevel)
	f.logs = logs
	f.router = NewRouter("!", reg, permissions.NewGate(f.fake), f.fake, lang.Default(), zap.New(core))
	return f
}

func message(author *discordgo.User, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		GuildID:   "g1",
		ChannelID: "c1",
		Author:    author,
		Content:   content,
	}}
}

var (
	alice = &discordgo.User{ID: "u-alice", Username: "alice"}
	bot   = &discordgo.User{ID: "u-bot", Username: "helper", Bot: true}
)

func TestDispatchIgnoresBotsAndDMs(t *testing.T) {
	f := newRouterFixture(t, Handler{Name: "ping"})

	f.router.Dispatch(context.Background(), message(bot, "!ping"))
	dm := message(alice, "!ping")
	dm.GuildID = ""
	f.router.Dispatch(context.Background(), dm)

	assert.Empty(t, f.ran)
	assert.Empty(t, f.fake.Calls)
}

func TestDispatchIgnoresUnknownCommands(t *testing.T) {
	f := newRouterFixture(t, Handler{Name: "ping"})

	f.router.Dispatch(context.Background(), message(alice, "!nope"))
	f.router.Dispatch(context.Background(), message(alice, "hello there"))

	assert.Empty(t, f.ran)
	assert.Empty(t, f.fake.Sent)
}

func TestDispatchDeniesWithoutCapability(t *testing.T) {
	f := newRouterFixture(t, Handler{
		Name:       "ban",
		Capability: permissions.BanMembers,
		Denied:     "deny_ban",
		Args:       ArgSpec{Mention: UserMention, Usage: "usage_ban"},
	})

	f.router.Dispatch(context.Background(), message(alice, "!ban"))

	assert.Empty(t, f.ran)
	assert.Equal(t, []string{lang.Default().T("deny_ban")}, f.fake.Replies())
	assert.Zero(t, f.fake.Called("BanMember"))
}

func TestDispatchGateErrorDenies(t *testing.T) {
	f := newRouterFixture(t, Handler{Name: "kick", Capability: permissions.KickMembers, Denied: "deny_kick"})
	f.fake.Permissions[alice.ID] = discordgo.PermissionAdministrator
	f.fake.Err["MemberPermissions"] = errors.New("gateway gone")

	f.router.Dispatch(context.Background(), message(alice, "!kick"))

	assert.Empty(t, f.ran)
	assert.Equal(t, []string{lang.Default().T("deny_kick")}, f.fake.Replies())
	assert.Equal(t, 1, f.logs.FilterMessage("permission lookup failed").Len())
}

func TestDispatchPermissionsReadEveryTime(t *testing.T) {
	f := newRouterFixture(t, Handler{Name: "kick", Capability: permissions.KickMembers, Denied: "deny_kick"})

	f.fake.Permissions[alice.ID] = discordgo.PermissionKickMembers
	f.router.Dispatch(context.Background(), message(alice, "!kick"))
	f.fake.Permissions[alice.ID] = 0
	f.router.Dispatch(context.Background(), message(alice, "!kick"))

	assert.Len(t, f.ran, 1)
	assert.Equal(t, 2, f.fake.Called("MemberPermissions"))
}

func TestDispatchUsage(t *testing.T) {
	f := newRouterFixture(t, Handler{
		Name: "warn",
		Args: ArgSpec{Mention: UserMention, MinArgs: 2, Usage: "usage_warn"},
	})

	f.router.Dispatch(context.Background(), message(alice, "!warn"))

	withMention := message(alice, "!warn <@u2>")
	withMention.Mentions = []*discordgo.User{{ID: "u2", Username: "bob"}}
	f.router.Dispatch(context.Background(), withMention)

	assert.Empty(t, f.ran)
	usage := lang.Default().T("usage_warn")
	assert.Equal(t, []string{usage, usage}, f.fake.Replies())
}

func TestDispatchResolvesArguments(t *testing.T) {
	f := newRouterFixture(t,
		Handler{
			Name: "warn",
			Args: ArgSpec{Mention: UserMention, MinArgs: 2, Usage: "usage_warn"},
		},
		Handler{
			Name:       "setjoinrole",
			Capability: permissions.ManageRoles,
			Args:       ArgSpec{Mention: RoleMention, Usage: "usage_setjoinrole"},
		},
		Handler{
			Name: "clear",
			Args: ArgSpec{MinArgs: 1, Usage: "usage_clear", Validate: func(inv *Invocation) string {
				n, err := strconv.Atoi(inv.Args[0])
				if err != nil {
					return "usage_clear"
				}
				inv.Number = n
				return ""
			}},
		},
	)
	f.fake.Permissions[alice.ID] = discordgo.PermissionManageRoles

	warn := message(alice, "!warn <@u2> spamming links")
	warn.Mentions = []*discordgo.User{{ID: "u2", Username: "bob"}}
	f.router.Dispatch(context.Background(), warn)

	role := message(alice, "!setjoinrole <@&r1>")
	role.MentionRoles = []string{"r1"}
	f.router.Dispatch(context.Background(), role)

	f.router.Dispatch(context.Background(), message(alice, "!clear 12"))

	require.Len(t, f.ran, 3)
	assert.Equal(t, "u2", f.ran[0].Target.ID)
	assert.Equal(t, "spamming links", f.ran[0].Rest(1))
	assert.Equal(t, "r1", f.ran[1].RoleID)
	assert.Equal(t, 12, f.ran[2].Number)
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	f := newRouterFixture(t, Handler{Name: "boom", Action: func(context.Context, *Invocation) error {
		panic("kaboom")
	}})

	assert.NotPanics(t, func() {
		f.router.Dispatch(context.Background(), message(alice, "!boom"))
	})
	assert.Equal(t, 1, f.logs.FilterMessage("command panicked").Len())
}

func TestDispatchLogsActionError(t *testing.T) {
	f := newRouterFixture(t, Handler{Name: "ping", Action: func(context.Context, *Invocation) error {
		return errors.New("send failed")
	}})

	f.router.Dispatch(context.Background(), message(alice, "!ping"))
	assert.Equal(t, 1, f.logs.FilterMessage("command failed").Len())
}
