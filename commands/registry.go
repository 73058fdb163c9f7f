package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Registry is the closed command table. It is filled once at startup.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h. Names are case-insensitive and must be unique.
func (r *Registry) Register(h Handler) error {
	name := strings.ToLower(strings.TrimSpace(h.Name))
	if name == "" {
		return errors.New("command with empty name")
	}
	if h.Action == nil {
		return fmt.Errorf("command %q has no action", name)
	}
	if _, dup := r.handlers[name]; dup {
		return fmt.Errorf("command %q registered twice", name)
	}
	h.Name = name
	r.handlers[name] = h
	return nil
}

// MustRegister registers every handler and panics on the first error.
func (r *Registry) MustRegister(hs ...Handler) {
	for _, h := range hs {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[strings.ToLower(name)]
	return h, ok
}

// Names lists registered commands alphabetically.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
