package domain

// Node is one entry of a component render tree.
// The variants are closed: *Element, Text, Number, Bool, Fragment and a nil
// Node, which renders to nothing.
type Node interface {
	node()
}

// Element is a typed node: a host tag such as "View" or an embedded component.
type Element struct {
	// Type is the tag, or the display name when Component is set.
	Type string

	// Props holds the element attributes. A "children" key is never serialized.
	Props Props

	// Children are rendered in order. Nested Fragments are flattened.
	Children []Node

	// Component is set for elements created with Embed. It is rendered in the
	// same pass as its parent, with Children passed under the "children" prop.
	Component Component
}

// Text is a string leaf.
type Text string

// Number is a numeric leaf.
type Number float64

// Bool renders to nothing. It exists so conditional expressions
// (cond && node) have a representation.
type Bool bool

// Fragment is an ordered list of nodes without a wrapping element.
type Fragment []Node

func (*Element) node() {}
func (Text) node()     {}
func (Number) node()   {}
func (Bool) node()     {}
func (Fragment) node() {}

// El creates a host element.
func El(tag string, props Props, children ...Node) *Element {
	return &Element{
		Type:     tag,
		Props:    props,
		Children: children,
	}
}

// Embed creates an element that renders another component in place.
func Embed(c Component, props Props, children ...Node) *Element {
	return &Element{
		Type:      DisplayName(c),
		Props:     props,
		Children:  children,
		Component: c,
	}
}

// When returns node if cond holds and Bool(false) otherwise.
func When(cond bool, node Node) Node {
	if cond {
		return node
	}
	return Bool(false)
}
