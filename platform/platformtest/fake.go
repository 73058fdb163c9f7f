// Package platformtest provides an in-memory platform.Client that records
// every call.
package platformtest

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"support-bot/platform"
)

// Call is one recorded client invocation.
type Call struct {
	Method string
	Args   []string
}

// Sent is a message posted through the fake.
type Sent struct {
	ID        string
	ChannelID string
	Content   string
	ReplyTo   string
	Data      *discordgo.MessageSend
}

// PermissionSet is a recorded overwrite.
type PermissionSet struct {
	ChannelID string
	TargetID  string
	Type      discordgo.PermissionOverwriteType
	Allow     int64
	Deny      int64
}

// Fake is a platform.Client backed by maps. Set Err[method] to make that
// method fail.
type Fake struct {
	mu sync.Mutex

	Err map[string]error

	Channels    map[string]*discordgo.Channel
	Roles       map[string][]*discordgo.Role
	Permissions map[string]int64
	History     map[string][]*discordgo.Message

	Calls        []Call
	Sent         []Sent
	Deleted      []string
	BulkDeleted  []string
	Created      []discordgo.GuildChannelCreateData
	DeletedChans []string
	Overwrites   []PermissionSet
	Responses    []*discordgo.InteractionResponse
	Timeouts     map[string]time.Time
	Kicked       map[string]string
	Banned       map[string]string
	RolesAdded   map[string][]string

	nextID int
}

var _ platform.Client = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Err:         map[string]error{},
		Channels:    map[string]*discordgo.Channel{},
		Roles:       map[string][]*discordgo.Role{},
		Permissions: map[string]int64{},
		History:     map[string][]*discordgo.Message{},
		Timeouts:    map[string]time.Time{},
		Kicked:      map[string]string{},
		Banned:      map[string]string{},
		RolesAdded:  map[string][]string{},
		nextID:      1000,
	}
}

// AddChannel registers a channel so lookups and overwrites can see it.
func (f *Fake) AddChannel(ch *discordgo.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Channels[ch.ID] = ch
}

// Called reports how many times method was invoked.
func (f *Fake) Called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Contents returns the text of every sent message, in order.
func (f *Fake) Contents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Sent))
	for _, s := range f.Sent {
		out = append(out, s.Content)
	}
	return out
}

// Replies returns the text of messages sent as replies, in order.
func (f *Fake) Replies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.Sent {
		if s.ReplyTo != "" {
			out = append(out, s.Content)
		}
	}
	return out
}

func (f *Fake) record(method string, args ...string) error {
	f.Calls = append(f.Calls, Call{Method: method, Args: args})
	return f.Err[method]
}

func (f *Fake) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *Fake) send(channelID, content, replyTo string, data *discordgo.MessageSend) *discordgo.Message {
	s := Sent{ID: f.id(), ChannelID: channelID, Content: content, ReplyTo: replyTo, Data: data}
	f.Sent = append(f.Sent, s)
	return &discordgo.Message{ID: s.ID, ChannelID: channelID, Content: content}
}

func (f *Fake) SendMessage(channelID, content string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SendMessage", channelID, content); err != nil {
		return nil, err
	}
	return f.send(channelID, content, "", nil), nil
}

func (f *Fake) SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SendComplex", channelID); err != nil {
		return nil, err
	}
	return f.send(channelID, data.Content, "", data), nil
}

func (f *Fake) Reply(channelID, messageID, content string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Reply", channelID, messageID, content); err != nil {
		return nil, err
	}
	return f.send(channelID, content, messageID, nil), nil
}

func (f *Fake) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteMessage", channelID, messageID); err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, messageID)
	return nil
}

func (f *Fake) RecentMessages(channelID string, limit int) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RecentMessages", channelID, strconv.Itoa(limit)); err != nil {
		return nil, err
	}
	msgs := f.History[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *Fake) BulkDeleteMessages(channelID string, messageIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("BulkDeleteMessages", channelID); err != nil {
		return err
	}
	f.BulkDeleted = append(f.BulkDeleted, messageIDs...)
	return nil
}

func (f *Fake) TimeoutMember(guildID, userID string, until time.Time, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("TimeoutMember", guildID, userID, reason); err != nil {
		return err
	}
	f.Timeouts[userID] = until
	return nil
}

func (f *Fake) KickMember(guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("KickMember", guildID, userID, reason); err != nil {
		return err
	}
	f.Kicked[userID] = reason
	return nil
}

func (f *Fake) BanMember(guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("BanMember", guildID, userID, reason); err != nil {
		return err
	}
	f.Banned[userID] = reason
	return nil
}

func (f *Fake) AddMemberRole(guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddMemberRole", guildID, userID, roleID); err != nil {
		return err
	}
	f.RolesAdded[userID] = append(f.RolesAdded[userID], roleID)
	return nil
}

func (f *Fake) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildRoles", guildID); err != nil {
		return nil, err
	}
	return f.Roles[guildID], nil
}

func (f *Fake) MemberPermissions(userID, channelID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("MemberPermissions", userID, channelID); err != nil {
		return 0, err
	}
	return f.Permissions[userID], nil
}

func (f *Fake) Channel(channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Channel", channelID); err != nil {
		return nil, err
	}
	ch, ok := f.Channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	return ch, nil
}

func (f *Fake) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateChannel", guildID, data.Name); err != nil {
		return nil, err
	}
	ch := &discordgo.Channel{
		ID:                   f.id(),
		GuildID:              guildID,
		Name:                 data.Name,
		Type:                 data.Type,
		ParentID:             data.ParentID,
		PermissionOverwrites: data.PermissionOverwrites,
	}
	f.Created = append(f.Created, data)
	f.Channels[ch.ID] = ch
	return ch, nil
}

func (f *Fake) DeleteChannel(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteChannel", channelID); err != nil {
		return err
	}
	if _, ok := f.Channels[channelID]; !ok {
		return fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	delete(f.Channels, channelID)
	f.DeletedChans = append(f.DeletedChans, channelID)
	return nil
}

// SetChannelPermission replaces the overwrite for targetID on the channel,
// the way the platform does.
func (f *Fake) SetChannelPermission(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SetChannelPermission", channelID, targetID); err != nil {
		return err
	}
	f.Overwrites = append(f.Overwrites, PermissionSet{ChannelID: channelID, TargetID: targetID, Type: targetType, Allow: allow, Deny: deny})

	ch, ok := f.Channels[channelID]
	if !ok {
		return nil
	}
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == targetID {
			ow.Allow, ow.Deny, ow.Type = allow, deny, targetType
			return nil
		}
	}
	ch.PermissionOverwrites = append(ch.PermissionOverwrites, &discordgo.PermissionOverwrite{
		ID: targetID, Type: targetType, Allow: allow, Deny: deny,
	})
	return nil
}

func (f *Fake) RespondInteraction(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RespondInteraction", interaction.ID); err != nil {
		return err
	}
	f.Responses = append(f.Responses, resp)
	return nil
}
