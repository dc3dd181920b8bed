// Package generator holds the entity metamodel and the SQL generation core:
// entity descriptors, property descriptors, identifier generators, the
// generator context and the per-entity statement generator.
package generator

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrModel indicates an inconsistent entity model.
	ErrModel = errors.New("seedql: invalid model")
	// ErrReference indicates a reference that can never be resolved.
	ErrReference = errors.New("seedql: unresolved reference")
	// ErrDialect indicates a feature unsupported by the dialect.
	ErrDialect = errors.New("seedql: unsupported dialect feature")
)

// ModelError reports an inconsistent entity model: a missing identifier,
// unresolvable inheritance, an unsatisfiable value. Fatal at build time.
type ModelError struct {
	Entity    string // Entity name
	Attribute string // Attribute name (if applicable)
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	var b strings.Builder
	b.WriteString("seedql: model error")
	if e.Entity != "" {
		b.WriteString(" on entity ")
		b.WriteString(e.Entity)
	}
	if e.Attribute != "" {
		b.WriteString(" attribute ")
		b.WriteString(e.Attribute)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ModelError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the sentinel error for ModelError.
func (e *ModelError) Is(target error) bool { return target == ErrModel }

// NewModelError creates a new ModelError.
func NewModelError(entity, attribute, message string, cause error) *ModelError {
	return &ModelError{
		Entity:    entity,
		Attribute: attribute,
		Message:   message,
		Cause:     cause,
	}
}

// ReferenceError reports a pending update whose target entity was never
// written, detected at end of run.
type ReferenceError struct {
	Entity  string // Entity name of the unresolved target
	Count   int    // Number of deferred actions left behind
	Message string
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	var b strings.Builder
	b.WriteString("seedql: reference error")
	if e.Entity != "" {
		b.WriteString(" on entity ")
		b.WriteString(e.Entity)
	}
	if e.Count > 0 {
		fmt.Fprintf(&b, " (%d deferred actions)", e.Count)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for
// ReferenceError.
func (e *ReferenceError) Is(target error) bool { return target == ErrReference }

// NewReferenceError creates a new ReferenceError.
func NewReferenceError(entity string, count int, message string) *ReferenceError {
	return &ReferenceError{Entity: entity, Count: count, Message: message}
}

// DialectError reports a model feature the dialect cannot express.
type DialectError struct {
	Dialect string
	Feature string
	Message string
}

// Error implements the error interface.
func (e *DialectError) Error() string {
	var b strings.Builder
	b.WriteString("seedql: dialect error")
	if e.Dialect != "" {
		b.WriteString(" for ")
		b.WriteString(e.Dialect)
	}
	if e.Feature != "" {
		b.WriteString(" feature ")
		b.WriteString(e.Feature)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for DialectError.
func (e *DialectError) Is(target error) bool { return target == ErrDialect }

// NewDialectError creates a new DialectError.
func NewDialectError(dialect, feature, message string) *DialectError {
	return &DialectError{Dialect: dialect, Feature: feature, Message: message}
}

// IsModelError reports whether the error is a ModelError.
func IsModelError(err error) bool {
	var modelErr *ModelError
	return errors.As(err, &modelErr)
}

// IsReferenceError reports whether the error is a ReferenceError.
func IsReferenceError(err error) bool {
	var refErr *ReferenceError
	return errors.As(err, &refErr)
}

// IsDialectError reports whether the error is a DialectError.
func IsDialectError(err error) bool {
	var dialectErr *DialectError
	return errors.As(err, &dialectErr)
}
