package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"time"

	"github.com/aretw0/pangea/internal/logging"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/ports"
)

// Serializer turns render trees into host trees.
// It holds no state between passes; the registry is its only side effect.
type Serializer struct {
	registry ports.FunctionRegistry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Serializer) {
		s.hooks = hooks
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Serializer) {
		s.logger = logger
	}
}

// NewSerializer creates a Serializer that registers function props with registry.
func NewSerializer(registry ports.FunctionRegistry, opts ...Option) *Serializer {
	s := &Serializer{
		registry: registry,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pass carries per-serialization context.
type pass struct {
	ctx  context.Context
	uiID string
}

// Serialize builds the root tree of a render pass: props of the component
// itself plus the serialized output of its render step. The root has no type.
func (s *Serializer) Serialize(ctx context.Context, uiID string, props domain.Props, node domain.Node) (*domain.Tree, error) {
	p := pass{ctx: ctx, uiID: uiID}

	rootProps, err := s.props(p, props)
	if err != nil {
		return nil, err
	}
	children, err := s.children(p, []domain.Node{node})
	if err != nil {
		return nil, err
	}
	return &domain.Tree{Props: rootProps, Children: children}, nil
}

// SerializeNode converts a single node. The result is a *domain.Tree for
// elements, a string or float64 for primitives, a []any for fragments and
// nil for nodes that render to nothing.
func (s *Serializer) SerializeNode(ctx context.Context, node domain.Node) (any, error) {
	p := pass{ctx: ctx}
	switch n := node.(type) {
	case nil, domain.Bool:
		return nil, nil
	case domain.Fragment:
		flat := flatten(nil, n)
		if len(flat) == 0 {
			return nil, nil
		}
		return s.list(p, flat)
	default:
		return s.child(p, n)
	}
}

// Render runs c's render step with panics converted into a RenderError.
func Render(c domain.Component, props domain.Props, state domain.State) (node domain.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.RenderError{Component: domain.DisplayName(c), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	node, err = c.Render(props, state)
	if err != nil {
		return nil, &domain.RenderError{Component: domain.DisplayName(c), Err: err}
	}
	return node, nil
}

// RenderTree runs one full render pass for a root component and serializes it.
func (s *Serializer) RenderTree(ctx context.Context, uiID string, c domain.Component, props domain.Props, state domain.State) (*domain.Tree, error) {
	start := time.Now()
	node, err := Render(c, props, state)
	if err != nil {
		return nil, err
	}

	tree, err := s.Serialize(ctx, uiID, props.Without(domain.PropChildren, domain.PropContainer), node)
	if err != nil {
		return nil, err
	}

	if s.hooks.OnRender != nil {
		s.hooks.OnRender(ctx, &domain.RenderEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRender, UIID: uiID},
			Component: domain.DisplayName(c),
			Duration:  time.Since(start),
		})
	}
	return tree, nil
}

// children serializes the child list of one node: nothing becomes an empty
// list, one primitive is inlined, anything else becomes a list.
func (s *Serializer) children(p pass, nodes []domain.Node) (any, error) {
	flat := flatten(nil, nodes)
	switch {
	case len(flat) == 0:
		return []any{}, nil
	case len(flat) == 1 && isPrimitive(flat[0]):
		return s.child(p, flat[0])
	default:
		return s.list(p, flat)
	}
}

func (s *Serializer) list(p pass, nodes []domain.Node) ([]any, error) {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		v, err := s.child(p, n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// child serializes an already flattened node.
func (s *Serializer) child(p pass, node domain.Node) (any, error) {
	switch n := node.(type) {
	case domain.Text:
		return string(n), nil
	case domain.Number:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite number %v", domain.ErrInvalidElement, f)
		}
		return f, nil
	case *domain.Element:
		return s.element(p, n)
	default:
		return nil, fmt.Errorf("%w: unexpected node %T", domain.ErrInvalidElement, node)
	}
}

func (s *Serializer) element(p pass, el *domain.Element) (*domain.Tree, error) {
	if el == nil || el.Type == "" {
		return nil, fmt.Errorf("%w: element without type", domain.ErrInvalidElement)
	}

	props, err := s.props(p, el.Props)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", el.Type, err)
	}

	content := el.Children
	if el.Component != nil {
		// Embedded components render in the same pass; their output replaces
		// the element children, which reach them as a prop.
		in := el.Props.Without()
		if len(el.Children) > 0 {
			in[domain.PropChildren] = domain.Fragment(el.Children)
		}
		var state domain.State
		if init, ok := el.Component.(domain.Initializer); ok {
			state = init.InitialState(in)
		}
		rendered, err := Render(el.Component, in, state)
		if err != nil {
			return nil, err
		}
		content = []domain.Node{rendered}
	}

	children, err := s.children(p, content)
	if err != nil {
		return nil, err
	}
	return &domain.Tree{Type: el.Type, Props: props, Children: children}, nil
}

// props copies props, minus children, replacing each function with a handle.
// Nil functions are dropped. Other values pass through untouched.
func (s *Serializer) props(p pass, props domain.Props) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k == domain.PropChildren {
			continue
		}
		fn, ok := funcValue(v)
		if !ok {
			if !finite(v) {
				return nil, fmt.Errorf("%w: prop %q: non-finite number %v", domain.ErrInvalidElement, k, v)
			}
			out[k] = v
			continue
		}
		if fn.IsNil() {
			continue
		}

		h, err := s.register(v)
		if err != nil {
			return nil, fmt.Errorf("%w: prop %q: %w", domain.ErrRegistration, k, err)
		}
		out[k] = h

		if s.hooks.OnRegister != nil {
			s.hooks.OnRegister(p.ctx, &domain.RegisterEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRegister, UIID: p.uiID},
				Prop:      k,
				Handle:    h,
			})
		}
		s.logger.Debug("function prop registered", "prop", k, "handle", h, "ui_id", p.uiID)
	}
	return out, nil
}

func (s *Serializer) register(fn any) (h domain.Handle, err error) {
	if s.registry == nil {
		return 0, fmt.Errorf("no function registry configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("registry panic: %v", r)
		}
	}()
	return s.registry.RegisterFunction(fn)
}

// flatten appends the renderable nodes of nodes to dst, expanding fragments
// and dropping nil and Bool entries.
func flatten(dst []domain.Node, nodes []domain.Node) []domain.Node {
	for _, n := range nodes {
		switch v := n.(type) {
		case nil, domain.Bool:
		case domain.Fragment:
			dst = flatten(dst, v)
		case *domain.Element:
			if v != nil {
				dst = append(dst, v)
			}
		default:
			dst = append(dst, n)
		}
	}
	return dst
}

func isPrimitive(n domain.Node) bool {
	switch n.(type) {
	case domain.Text, domain.Number:
		return true
	}
	return false
}

func funcValue(v any) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	return rv, rv.Kind() == reflect.Func
}

func finite(v any) bool {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case domain.Number:
		f = float64(n)
	default:
		return true
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
