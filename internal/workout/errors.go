package workout

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)

// ErrSessionNotOwned is returned for sessions that do not exist or belong to
// another user. Both cases share one message so callers cannot test for
// other users' sessions.
var ErrSessionNotOwned error = ownershipError{resource: "Session"}

// ErrLogNotOwned and ErrRecordNotOwned follow the same rule for logs and records.
var (
	ErrLogNotOwned    error = ownershipError{resource: "Workout log"}
	ErrRecordNotOwned error = ownershipError{resource: "Personal record"}
)

type ownershipError struct {
	resource string
}

func (e ownershipError) Error() string {
	return e.resource + " not found or not owned by user"
}

func (e ownershipError) Is(target error) bool {
	return target == ErrNotFound || target == ErrForbidden
}

// ValidationError lists field-level problems with client input.
type ValidationError struct {
	Fields map[string]string
}

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
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// errOrNil returns e as an error only when it carries field errors.
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
