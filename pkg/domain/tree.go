package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Handle is the opaque integer a host assigns to a registered function.
type Handle int64

// Tree is the host-facing, JSON-only projection of a render tree.
//
// The root Tree has no Type. Children holds either a bare string or float64
// (a single primitive child) or a []any whose entries are *Tree, string or
// float64. An empty []any marks a node without renderable children.
type Tree struct {
	Type     string         `json:"type,omitempty"`
	Props    map[string]any `json:"props"`
	Children any            `json:"children"`
}

// Marshal encodes t the way the host receives it: keys in type, props,
// children order and no HTML escaping.
func (t *Tree) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Handles lists the function handles carried by the props of t and its
// descendants.
func (t *Tree) Handles() []Handle {
	var out []Handle
	var walk func(any)
	walk = func(v any) {
		switch n := v.(type) {
		case *Tree:
			if n == nil {
				return
			}
			for _, p := range n.Props {
				if h, ok := p.(Handle); ok {
					out = append(out, h)
				}
			}
			walk(n.Children)
		case []any:
			for _, c := range n {
				walk(c)
			}
		}
	}
	walk(t)
	return out
}

// Snapshot is the last tree delivered to the host for a modal.
type Snapshot struct {
	UIID      string    `json:"ui_id"`
	Version   int       `json:"version"`
	JSON      string    `json:"tree"`
	UpdatedAt time.Time `json:"updated_at"`
}
