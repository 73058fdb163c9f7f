// Package events publishes audit records of the bot's state changes.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type enumerates the audit event identifiers. The value doubles as the
// AMQP routing key.
type Type string

const (
	TicketOpened      Type = "ticket.opened"
	TicketClosing     Type = "ticket.closing"
	TicketClosed      Type = "ticket.closed"
	ModerationClear   Type = "moderation.clear"
	ModerationTimeout Type = "moderation.timeout"
	ModerationKick    Type = "moderation.kick"
	ModerationBan     Type = "moderation.ban"
	ChannelLocked     Type = "channel.locked"
	ChannelUnlocked   Type = "channel.unlocked"
	JoinRoleSet       Type = "joinrole.set"
	JoinRoleAssigned  Type = "joinrole.assigned"
)

// Event is one audit record.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	TargetID  string    `json:"target_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New stamps an event with a fresh id and the given time.
func New(t Type, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: at.UTC(),
	}
}

// Publisher delivers events. Delivery is best effort; callers log errors and
// carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Handler consumes events delivered by Memory.
type Handler func(context.Context, Event) error

// Memory keeps every published event and hands it to subscribers
// synchronously.
type Memory struct {
	mu        sync.RWMutex
	events    []Event
	listeners map[Type][]Handler
}

func NewMemory() *Memory {
	return &Memory{listeners: make(map[Type][]Handler)}
}

func (m *Memory) Publish(ctx context.Context, e Event) error {
	m.mu.Lock()
	m.events = append(m.events, e)
	handlers := append([]Handler{}, m.listeners[e.Type]...)
	m.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers h for events of type t.
func (m *Memory) Subscribe(t Type, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[t] = append(m.listeners[t], h)
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Event(nil), m.events...)
}

// Types returns the type of every published event, in order.
func (m *Memory) Types() []Type {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Type, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

func (m *Memory) Close() error { return nil }
