package dsl

import "github.com/aretw0/pangea/pkg/domain"

// ElementBuilder provides a fluent API for configuring an element.
type ElementBuilder struct {
	el *domain.Element
}

// New starts an element of the given host type.
func New(tag string) *ElementBuilder {
	return &ElementBuilder{el: domain.El(tag, nil)}
}

// View starts a "View" element.
func View() *ElementBuilder { return New("View") }

// Text returns a "Text" element holding content.
func Text(content string) *domain.Element {
	return New("Text").Text(content).Build()
}

// Button returns a "Button" element with a label and an onEvent handler.
func Button(label string, onEvent any) *domain.Element {
	return New("Button").On("onEvent", onEvent).Text(label).Build()
}

// Prop sets a plain prop.
func (b *ElementBuilder) Prop(key string, value any) *ElementBuilder {
	if b.el.Props == nil {
		b.el.Props = domain.Props{}
	}
	b.el.Props[key] = value
	return b
}

// Props merges props into the element props.
func (b *ElementBuilder) Props(props domain.Props) *ElementBuilder {
	for k, v := range props {
		b.Prop(k, v)
	}
	return b
}

// On sets a function prop. The function is registered with the host when
// the tree is serialized and never called by the renderer.
func (b *ElementBuilder) On(event string, fn any) *ElementBuilder {
	return b.Prop(event, fn)
}

// Text appends a text child.
func (b *ElementBuilder) Text(content string) *ElementBuilder {
	return b.Child(domain.Text(content))
}

// Number appends a numeric child.
func (b *ElementBuilder) Number(n float64) *ElementBuilder {
	return b.Child(domain.Number(n))
}

// Child appends children.
func (b *ElementBuilder) Child(children ...domain.Node) *ElementBuilder {
	b.el.Children = append(b.el.Children, children...)
	return b
}

// When appends child only if cond holds.
func (b *ElementBuilder) When(cond bool, child domain.Node) *ElementBuilder {
	return b.Child(domain.When(cond, child))
}

// Build returns the element.
func (b *ElementBuilder) Build() *domain.Element {
	return b.el
}
