package domain

// Reserved prop keys.
const (
	// PropChildren carries element children into an embedded component.
	// It is never part of a serialized props mapping.
	PropChildren = "children"

	// PropContainer carries the Container a modal is addressed by.
	// It is stripped from the modal root props before serialization.
	PropContainer = "modalContainer"
)
