package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOwned is returned when an operation requires the engine to be
	// attached to a live document object.
	ErrNotOwned = errors.New("expression engine must be owned by a document object")

	// ErrPathInvalid is returned when a path does not resolve to a usable
	// property.
	ErrPathInvalid = errors.New("path does not resolve to a property")

	// ErrForeignProperty is returned during execute when a target property
	// belongs to a container other than the engine's owner.
	ErrForeignProperty = errors.New("invalid property owner")

	// ErrReadOnly is returned on script-layer write attempts.
	ErrReadOnly = errors.New("property is read-only")
)

// ValidationError reports a diagnostic produced by expression validation.
// The store is unchanged when this error is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CyclicDependencyError reports that the dependency graph is not acyclic,
// quoting the offending path.
type CyclicDependencyError struct {
	Path string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("%s reference creates a cyclic dependency.", e.Path)
}

// AdjustLinkError wraps a failure from an expression's link adjustment with
// the owning object and expression for context.
type AdjustLinkError struct {
	Owner      string
	Expression string
	Err        error
}

func (e *AdjustLinkError) Error() string {
	return fmt.Sprintf("failed to adjust link for %s in expression %s: %v", e.Owner, e.Expression, e.Err)
}

func (e *AdjustLinkError) Unwrap() error {
	return e.Err
}
