package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/pangea/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, err
		}
		return r.Render(markdown)
	}
}

// Outline describes a delivered tree as a markdown list, one element per
// item, props in code spans and function props as their handles.
func Outline(title string, tree *domain.Tree) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString("# " + title + "\n\n")
	}
	if tree == nil {
		sb.WriteString("_empty_\n")
		return sb.String()
	}
	if len(tree.Props) > 0 {
		sb.WriteString(formatProps(tree.Props) + "\n\n")
	}
	before := sb.Len()
	outlineChildren(&sb, 0, tree.Children)
	if sb.Len() == before {
		sb.WriteString("_empty_\n")
	}
	return sb.String()
}

func outlineChildren(sb *strings.Builder, depth int, children any) {
	switch c := children.(type) {
	case []any:
		for _, child := range c {
			outlineNode(sb, depth, child)
		}
	case nil:
	default:
		outlineNode(sb, depth, c)
	}
}

func outlineNode(sb *strings.Builder, depth int, node any) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case *domain.Tree:
		line := indent + "- **" + n.Type + "**"
		if len(n.Props) > 0 {
			line += " " + formatProps(n.Props)
		}
		sb.WriteString(line + "\n")
		outlineChildren(sb, depth+1, n.Children)
	case string:
		sb.WriteString(fmt.Sprintf("%s- %q\n", indent, n))
	default:
		sb.WriteString(fmt.Sprintf("%s- %v\n", indent, n))
	}
}

func formatProps(props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := props[k].(type) {
		case domain.Handle:
			parts = append(parts, fmt.Sprintf("`%s=fn#%d`", k, v))
		case string:
			parts = append(parts, fmt.Sprintf("`%s=%q`", k, v))
		default:
			parts = append(parts, fmt.Sprintf("`%s=%v`", k, v))
		}
	}
	return strings.Join(parts, " ")
}
