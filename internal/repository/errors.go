// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as services
// and handlers to distinguish between different failure scenarios.  The SQL
// implementations wrap driver errors with context; callers compare with
// errors.Is.
package repository

import "github.com/pkg/errors"

// ErrForbidden is returned when the caller attempts an operation on an
// event they do not own.  Handlers translate this into an HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrEventNotFound is returned when no event with the requested id exists.
var ErrEventNotFound = errors.New("event not found")

// ErrAttendeeNotFound is returned when the ledger entry does not exist or
// belongs to a different event.
var ErrAttendeeNotFound = errors.New("attendee not found")

// ErrInsufficientInventory is returned when a purchase asks for more tickets
// than remain.  Nothing is written.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// ErrInconsistentState signals that the stored counters and ledger disagree,
// e.g. removing an entry would drive tickets_sold negative.  It indicates a
// defect and is never corrected silently.
var ErrInconsistentState = errors.New("inconsistent inventory state")

// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup has no match.
var ErrUserNotFound = errors.New("user not found")

// ErrTokenInvalid is returned for unknown, revoked or expired refresh tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")
