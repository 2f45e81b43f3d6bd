// Package errors defines the engine's typed failures and maps them onto
// HTTP status codes at the transport boundary.
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Domain errors returned by the deck service. A depleted candidate pool is
// not represented here: "nothing available" is a policy result, not a
// failure, and flows through normal return values.
var (
	// ErrSelfAction is returned when an actor tries to decide on themselves.
	ErrSelfAction = errors.New("cannot decide on yourself")

	// ErrTargetNotAvailable is returned when the decision target is unknown
	// or inactive. No partial write happens in that case.
	ErrTargetNotAvailable = errors.New("target user is unknown or inactive")

	// ErrInvalidArgument is returned for malformed request fields.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Invalid wraps ErrInvalidArgument with a human-readable reason.
func Invalid(msg string) error {
	return &invalidError{msg: msg}
}

type invalidError struct {
	msg string
}

func (e *invalidError) Error() string        { return e.msg }
func (e *invalidError) Unwrap() error        { return ErrInvalidArgument }
func (e *invalidError) Is(target error) bool { return target == ErrInvalidArgument }

// Status maps an engine error onto an HTTP status code. Anything not in the
// taxonomy is a storage/infra failure and surfaces as 500; callers may retry
// those (record is an idempotent upsert, fetch has no side effects).
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrSelfAction), errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest

	case errors.Is(err, ErrTargetNotAvailable), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return 499 // client closed request

	default:
		return http.StatusInternalServerError
	}
}
