// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package navtree

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for navigation tree operations.
var (
	// ErrValidation indicates a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrCycle indicates a parent change would make a link its own ancestor.
	ErrCycle = errors.New("parent change would create a cycle")

	// ErrHasChildren indicates a delete was requested on a link that still has children.
	ErrHasChildren = errors.New("link has children")

	// ErrNotFound indicates no link exists with the given ID.
	ErrNotFound = errors.New("link not found")

	// ErrPersistence indicates the persistence gateway failed to load or save.
	ErrPersistence = errors.New("persistence failed")
)

// ValidationError carries per-field validation messages.
type ValidationError struct {
	Fields map[string]string
}

// Error implements error.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// newValidationError builds a ValidationError for a single field.
func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// PersistenceError wraps a gateway failure. The in-memory change it follows
// has already been applied; callers may retry the save.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s navigation links: %v", e.Op, e.Err)
}

// Unwrap returns the underlying gateway error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
