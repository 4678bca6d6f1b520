// Package emotes rewrites pictographic characters into bracketed textual
// names before chat text is logged, keeping the chat log plain-text friendly.
// The substitution table is a YAML file mapping a character to a name:
//
//	"🔥": fire
//	"👍": thumbs_up
//
// The transform is a pure lookup and can sit between receive and append
// without affecting the rest of the pipeline.
package emotes

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table maps a pictographic character (or any substring) to its textual name.
type Table struct {
	replacer *strings.Replacer
	size     int
}

// LoadTable reads a YAML substitution map from path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read emote map: %w", err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse emote map: %w", err)
	}
	return NewTable(m), nil
}

// NewTable builds a table from an in-memory map. Names are wrapped in
// brackets: "🔥" with name "fire" becomes "[fire]".
func NewTable(m map[string]string) *Table {
	pairs := make([]string, 0, len(m)*2)
	for glyph, name := range m {
		if glyph == "" || name == "" {
			continue
		}
		pairs = append(pairs, glyph, "["+name+"]")
	}
	return &Table{replacer: strings.NewReplacer(pairs...), size: len(pairs) / 2}
}

// Len reports the number of substitutions in the table.
func (t *Table) Len() int { return t.size }

// Apply rewrites all known glyphs in s. Unknown characters pass through.
func (t *Table) Apply(s string) string {
	if t == nil || t.size == 0 {
		return s
	}
	return t.replacer.Replace(s)
}
