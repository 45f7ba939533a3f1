// Package perr defines the error taxonomy shared by the pipeline's pure
// components (spec.md section 7): every failure is tagged Transient,
// Permanent, or Degraded so the Worker can route it without string
// matching and structured logs can carry the tag as a field.
package perr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Transient Kind = "transient"
	Permanent Kind = "permanent"
	Degraded  Kind = "degraded"
)

// ComponentError wraps an underlying error with a routing Kind and the
// name of the component that produced it.
type ComponentError struct {
	Kind      Kind
	Component string
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Kind, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }

func New(component string, kind Kind, err error) *ComponentError {
	return &ComponentError{Component: component, Kind: kind, Err: err}
}

func Transientf(component, format string, args ...any) *ComponentError {
	return New(component, Transient, fmt.Errorf(format, args...))
}

func Permanentf(component, format string, args ...any) *ComponentError {
	return New(component, Permanent, fmt.Errorf(format, args...))
}

func Degradedf(component, format string, args ...any) *ComponentError {
	return New(component, Degraded, fmt.Errorf(format, args...))
}

// KindOf extracts the routing Kind from err, defaulting to Permanent for
// any error that didn't originate from a ComponentError (conservative: an
// unrecognized failure should not be retried forever).
func KindOf(err error) Kind {
	var ce *ComponentError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Permanent
}
