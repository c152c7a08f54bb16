package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Container supplies the host UI identifier a modal session is addressed by.
type Container struct {
	uiID string
}

// NewContainer allocates a fresh UI identifier.
func NewContainer() Container {
	return Container{uiID: uuid.NewString()}
}

// ContainerFor wraps an identifier handed out by the host.
func ContainerFor(uiID string) Container {
	return Container{uiID: uiID}
}

// UIID returns the identifier.
func (c Container) UIID() string {
	return c.uiID
}

// ContainerFrom extracts the Container stored under PropContainer.
func ContainerFrom(props Props) (Container, error) {
	var c Container
	switch v := props[PropContainer].(type) {
	case Container:
		c = v
	case *Container:
		if v != nil {
			c = *v
		}
	case nil:
		return Container{}, ErrMissingContainer
	default:
		return Container{}, fmt.Errorf("%w: unexpected %T", ErrMissingContainer, v)
	}
	if c.uiID == "" {
		return Container{}, fmt.Errorf("%w: empty ui id", ErrMissingContainer)
	}
	return c, nil
}
