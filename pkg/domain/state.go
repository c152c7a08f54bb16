package domain

// Props are the attributes passed to a component or element.
type Props map[string]any

// Without returns a copy of p minus the given keys.
func (p Props) Without(keys ...string) Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// State holds the internal, mutable data of a modal component.
type State map[string]any

// Clone returns a shallow copy of s. A nil State clones to an empty one.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns a shallow copy of s with patch applied on top.
func (s State) Merge(patch State) State {
	out := s.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}
