package dsl

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/aretw0/pangea/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidDocument reports a document that does not describe a tree.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrUnknownHandler reports an "on" entry naming a handler that was not bound.
	ErrUnknownHandler = errors.New("unknown handler")
)

// Document is a component described in YAML:
//
//	name: SentMoney
//	state:
//	  amount: 3
//	root:
//	  type: View
//	  children:
//	    - type: Text
//	      children: "Amount: ${amount} ETH"
//	    - type: Button
//	      props: {url: "https://etherscan.io"}
//	      on: {onEvent: open}
//	      children: Go to etherscan
//
// Strings may reference state and props with ${key}; state wins. A string
// that is exactly one placeholder keeps the referenced value's type.
// An element with "if: key" is rendered only when key is truthy.
type Document struct {
	Name  string         `mapstructure:"name"`
	State map[string]any `mapstructure:"state"`
	Root  any            `mapstructure:"root"`

	compiled template
	names    []string
}

// ElementSpec is one element entry of a Document.
type ElementSpec struct {
	Type     string            `mapstructure:"type"`
	Props    map[string]any    `mapstructure:"props"`
	On       map[string]string `mapstructure:"on"`
	If       string            `mapstructure:"if"`
	Children any               `mapstructure:"children"`
}

// template is a compiled document node.
type template interface{}

type elementTemplate struct {
	spec     ElementSpec
	children []template
}

// LoadFile reads a Document from path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	var doc Document
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	handlers := map[string]bool{}
	root, err := compile(doc.Root, "root", handlers)
	if err != nil {
		return nil, err
	}
	doc.compiled = root
	for name := range handlers {
		doc.names = append(doc.names, name)
	}
	sort.Strings(doc.names)
	return &doc, nil
}

func decodeStrict(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func compile(v any, path string, handlers map[string]bool) (template, error) {
	switch n := v.(type) {
	case nil, bool, string, int, int64, float64:
		return n, nil
	case []any:
		out := make([]template, 0, len(n))
		for i, item := range n {
			t, err := compile(item, fmt.Sprintf("%s[%d]", path, i), handlers)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, nil
	case map[string]any:
		var spec ElementSpec
		if err := decodeStrict(n, &spec); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, path, err)
		}
		if spec.Type == "" {
			return nil, fmt.Errorf("%w: %s: element without type", ErrInvalidDocument, path)
		}
		for _, name := range spec.On {
			handlers[name] = true
		}

		el := &elementTemplate{spec: spec}
		children, err := compile(spec.Children, path+".children", handlers)
		if err != nil {
			return nil, err
		}
		if list, ok := children.([]template); ok {
			el.children = list
		} else if children != nil {
			el.children = []template{children}
		}
		return el, nil
	default:
		return nil, fmt.Errorf("%w: %s: unsupported value %T", ErrInvalidDocument, path, v)
	}
}

// Handlers returns the handler names referenced by "on" entries, sorted.
func (d *Document) Handlers() []string {
	return d.names
}

// Bind resolves every handler name and returns the document as a component.
func (d *Document) Bind(handlers map[string]any) (*Component, error) {
	for _, name := range d.names {
		if _, ok := handlers[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, name)
		}
	}
	return &Component{doc: d, handlers: handlers}, nil
}

// Component renders a bound Document.
type Component struct {
	doc      *Document
	handlers map[string]any
}

// DisplayName returns the document name.
func (c *Component) DisplayName() string {
	if c.doc.Name == "" {
		return "Document"
	}
	return c.doc.Name
}

// InitialState returns a copy of the document state.
func (c *Component) InitialState(props domain.Props) domain.State {
	return domain.State(c.doc.State).Clone()
}

// Render instantiates the document against props and state.
func (c *Component) Render(props domain.Props, state domain.State) (domain.Node, error) {
	scope := func(key string) (any, bool) {
		if v, ok := state[key]; ok {
			return v, true
		}
		v, ok := props[key]
		return v, ok
	}
	return c.instantiate(c.doc.compiled, scope), nil
}

func (c *Component) instantiate(t template, scope lookup) domain.Node {
	switch n := t.(type) {
	case nil, bool:
		return nil
	case string:
		return literal(expand(n, scope))
	case int:
		return domain.Number(n)
	case int64:
		return domain.Number(n)
	case float64:
		return domain.Number(n)
	case []template:
		out := make(domain.Fragment, 0, len(n))
		for _, item := range n {
			out = append(out, c.instantiate(item, scope))
		}
		return out
	case *elementTemplate:
		if n.spec.If != "" {
			v, _ := scope(n.spec.If)
			if !truthy(v) {
				return nil
			}
		}
		b := New(n.spec.Type)
		for k, v := range n.spec.Props {
			b.Prop(k, expandValue(v, scope))
		}
		for event, name := range n.spec.On {
			b.On(event, c.handlers[name])
		}
		for _, child := range n.children {
			b.Child(c.instantiate(child, scope))
		}
		return b.Build()
	}
	return nil
}

// literal turns an expanded value into a leaf node.
func literal(v any) domain.Node {
	switch x := v.(type) {
	case nil, bool:
		return nil
	case string:
		return domain.Text(x)
	case int:
		return domain.Number(x)
	case int64:
		return domain.Number(x)
	case float64:
		return domain.Number(x)
	case domain.Node:
		return x
	}
	return domain.Text(fmt.Sprint(v))
}

type lookup func(key string) (any, bool)

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)\}`)

// expand substitutes placeholders in s. A string that is exactly one
// placeholder yields the raw value.
func expand(s string, scope lookup) any {
	if m := placeholder.FindStringSubmatchIndex(s); m != nil && m[0] == 0 && m[1] == len(s) {
		v, _ := scope(s[m[2]:m[3]])
		return v
	}
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		v, ok := scope(match[2 : len(match)-1])
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
}

func expandValue(v any, scope lookup) any {
	switch x := v.(type) {
	case string:
		return expand(x, scope)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = expandValue(item, scope)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = expandValue(item, scope)
		}
		return out
	}
	return v
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	}
	return true
}
