package domain

import (
	"errors"
	"fmt"
)

// ErrRender is matched by every error raised from a component render step.
var ErrRender = errors.New("render failed")

// ErrRegistration is returned when the host cannot register a function prop.
var ErrRegistration = errors.New("function registration failed")

// ErrInvalidElement is returned for elements without a type.
var ErrInvalidElement = errors.New("invalid element")

// ErrMissingContainer is returned when modal props carry no usable Container.
var ErrMissingContainer = errors.New("modal container missing")

// ErrSessionNotFound is returned when a UI identifier has no session or snapshot.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionClosed is returned by updates sent to a discarded session.
var ErrSessionClosed = errors.New("session closed")

// ErrUnknownMessageType is returned when no renderer is registered for a message type.
var ErrUnknownMessageType = errors.New("unknown message type")

// RenderError wraps a failure raised by a component's Render.
type RenderError struct {
	Component string
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Component, e.Err)
}

// Unwrap exposes both ErrRender and the underlying cause to errors.Is.
func (e *RenderError) Unwrap() []error {
	return []error{ErrRender, e.Err}
}
