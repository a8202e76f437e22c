package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/iliyamo/event-planner/internal/repository"
)

// Session is the caller's identity, built by the auth middleware from the
// access token and passed explicitly into every owner-scoped operation.  The
// zero value is an anonymous caller and owns nothing.
type Session struct {
	UserID   uint64
	Email    string
	Username string
}

// Authenticated reports whether the session carries a user.
func (s Session) Authenticated() bool { return s.UserID != 0 }

func (s Session) require() error {
	if !s.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// ErrUnauthenticated is returned when an operation needs an identity and the
// session has none.
var ErrUnauthenticated = errors.New("authentication required")

// ErrCollaborator matches every CollaboratorError with errors.Is.
var ErrCollaborator = errors.New("collaborator failure")

// CollaboratorError wraps a failure of a backend the service depends on
// (database, cache, broker, search API).  Clients get a generic message;
// the cause is for logs.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *CollaboratorError) Unwrap() error { return e.Err }

func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaborator }

// ValidationError reports bad or missing input, keyed by field name.
// Nothing is persisted when one is returned.
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
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldErrors accumulates per-field messages, keeping the first per field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

var domainErrors = []error{
	ErrUnauthenticated,
	repository.ErrForbidden,
	repository.ErrEventNotFound,
	repository.ErrAttendeeNotFound,
	repository.ErrInsufficientInventory,
	repository.ErrInconsistentState,
	repository.ErrEmailExists,
	repository.ErrUserNotFound,
	repository.ErrTokenInvalid,
}

// classify passes domain errors through and wraps everything else as a
// collaborator failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &CollaboratorError{Op: op, Err: err}
}
