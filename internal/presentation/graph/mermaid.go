package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/pangea/pkg/domain"
)

// Overlay marks the parts of a tree touched by the last push.
type Overlay struct {
	Changes domain.TreeDiff
}

const maxLabel = 32

// GenerateMermaid produces a Mermaid flowchart of a delivered tree.
// Shapes:
// - Root: ((Circle))
// - Element with function props: [[Subroutine]]
// - Text or number leaf: [/Parallelogram/]
// - Other elements: [Rectangle]
// Elements and leaves named by the overlay changes are styled as changed.
func GenerateMermaid(tree *domain.Tree, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if tree == nil {
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("    %s((\"root\"))\n", nodeID("$")))
	writeChildren(&sb, "$", tree.Children)

	if overlay != nil && len(overlay.Changes) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef added fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef changed fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		// A node can be both added to and changed; the strongest style wins.
		styles := make(map[string]string)
		for _, c := range overlay.Changes {
			isProp := strings.Contains(c.Path, ".props.")
			if c.Op == domain.OpRemove && !isProp {
				continue
			}
			id := nodeID(owner(c.Path))
			if c.Op == domain.OpAdd && !isProp {
				if _, ok := styles[id]; !ok {
					styles[id] = "added"
				}
				continue
			}
			styles[id] = "changed"
		}

		ids := make([]string, 0, len(styles))
		for id := range styles {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", id, styles[id]))
		}
	}

	return sb.String()
}

func writeChildren(sb *strings.Builder, parent string, children any) {
	switch c := children.(type) {
	case []any:
		for i, child := range c {
			writeNode(sb, parent, fmt.Sprintf("%s.children[%d]", parent, i), child)
		}
	case nil:
	default:
		writeNode(sb, parent, parent+".children", c)
	}
}

func writeNode(sb *strings.Builder, parent, path string, node any) {
	id := nodeID(path)
	switch n := node.(type) {
	case *domain.Tree:
		opener, closer := "[", "]"
		if interactive(n) {
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, escape(n.Type), closer))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID(parent), id))
		writeChildren(sb, path, n.Children)
	default:
		sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", id, escape(fmt.Sprint(n))))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID(parent), id))
	}
}

func interactive(t *domain.Tree) bool {
	for _, v := range t.Props {
		if _, ok := v.(domain.Handle); ok {
			return true
		}
	}
	return false
}

// owner returns the path of the node a change belongs to: prop changes
// belong to their element and a replaced child list to its parent.
func owner(path string) string {
	if i := strings.LastIndex(path, ".props."); i >= 0 {
		return path[:i]
	}
	return strings.TrimSuffix(path, ".children")
}

func nodeID(path string) string {
	s := strings.Replace(path, "$", "root", 1)
	s = strings.ReplaceAll(s, ".children[", "_")
	s = strings.ReplaceAll(s, ".children", "_text")
	s = strings.ReplaceAll(s, "]", "")
	return s
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxLabel {
		s = string(r[:maxLabel-1]) + "…"
	}
	return s
}
