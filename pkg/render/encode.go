package render

import (
	"fmt"

	"github.com/aretw0/pangea/pkg/domain"
)

// Encoded is a tree in its wire form.
type Encoded struct {
	// Wire is what the host receives. Map keys are sorted, so two trees
	// are the same to the host exactly when their wire forms are equal.
	Wire string
}

// Encode produces the wire form of t.
func Encode(t *domain.Tree) (Encoded, error) {
	wire, err := t.Marshal()
	if err != nil {
		return Encoded{}, fmt.Errorf("marshal tree: %w", err)
	}
	return Encoded{Wire: string(wire)}, nil
}
