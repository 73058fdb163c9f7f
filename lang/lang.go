package lang

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultMessages []byte

// Catalog resolves message keys to user-facing text.
type Catalog struct {
	Language string
	messages map[string]string
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultMessages)
	if err != nil {
		panic(fmt.Sprintf("lang: embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file and layers it over the embedded defaults, so a
// partial file only overrides the keys it names.
func Load(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	over, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range over.messages {
		base.messages[k] = v
	}
	base.Language = over.Language
	return base, nil
}

// Parse decodes a catalog document. The document selects a language block
// with active_language and falls back to "en".
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	active := "en"
	if v, ok := raw["active_language"].(string); ok && v != "" {
		active = v
	}

	block, ok := raw[active]
	if !ok {
		active = "en"
		block, ok = raw[active]
		if !ok {
			return &Catalog{Language: active, messages: map[string]string{}}, nil
		}
	}

	blockMap, ok := block.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("language block %q is not a map", active)
	}

	m := make(map[string]string, len(blockMap))
	for k, v := range blockMap {
		if s, ok := v.(string); ok {
			m[k] = s
		}
	}
	return &Catalog{Language: active, messages: m}, nil
}

// T returns the message for key with {name} placeholders replaced from
// pairs (name, value, name, value, ...). Unknown keys render as {key}.
func (c *Catalog) T(key string, pairs ...string) string {
	s, ok := c.messages[key]
	if !ok {
		return "{" + key + "}"
	}
	for j := 0; j+1 < len(pairs); j += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[j]+"}", pairs[j+1])
	}
	return s
}

// List splits a "|"-separated message into its parts.
func (c *Catalog) List(key string) []string {
	s, ok := c.messages[key]
	if !ok || s == "" {
		return nil
	}
	return strings.Split(s, "|")
}

// Len reports how many keys are loaded.
func (c *Catalog) Len() int { return len(c.messages) }
