package render

import (
	"context"

	"github.com/aretw0/pangea/pkg/domain"
)

// RenderMessage renders c once and hands the tree to cb.
// Messages are snapshots: no state updates follow. On failure the error is
// returned and cb is not called.
func (s *Serializer) RenderMessage(ctx context.Context, c domain.Component, props domain.Props, cb func(*domain.Tree)) error {
	var state domain.State
	if init, ok := c.(domain.Initializer); ok {
		state = init.InitialState(props)
	}

	tree, err := s.RenderTree(ctx, "", c, props, state)
	if err != nil {
		s.logger.Warn("message render failed", "component", domain.DisplayName(c), "err", err)
		return err
	}

	cb(tree)
	return nil
}
