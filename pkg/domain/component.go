package domain

import (
	"fmt"
	"strings"
)

// Component is the single capability every message and modal implements.
// Render must be a pure function of props and state.
type Component interface {
	Render(props Props, state State) (Node, error)
}

// ComponentFunc adapts a plain function to the Component interface.
type ComponentFunc func(props Props, state State) (Node, error)

// Render calls f.
func (f ComponentFunc) Render(props Props, state State) (Node, error) {
	return f(props, state)
}

// Initializer is implemented by components that declare an initial state.
type Initializer interface {
	InitialState(props Props) State
}

// Named is implemented by components that want a display name other than
// their Go type name.
type Named interface {
	DisplayName() string
}

// Mounter is implemented by modal components that request state updates.
// Mount is called once, after the first render has been queued for delivery.
type Mounter interface {
	Mount(u Updater)
}

// Updater is the handle a mounted modal uses to change its own state.
type Updater interface {
	// SetState merges patch into the current state and schedules a render.
	// done runs once the resulting tree has been delivered or found unchanged.
	SetState(patch State, done func()) error

	// UIID returns the host identifier the modal is addressed by.
	UIID() string
}

// DisplayName returns the name used as "type" for an embedded component.
func DisplayName(c Component) string {
	if n, ok := c.(Named); ok {
		return n.DisplayName()
	}
	name := strings.TrimLeft(fmt.Sprintf("%T", c), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
