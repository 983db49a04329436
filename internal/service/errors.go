// Package service holds the business rules for users and their exercise logs.
package service

import (
	"errors"

	"github.com/exlog/exlog/internal/logquery"
)

// Validation errors. Handlers map these to 400.
var (
	ErrUsernameRequired    = errors.New("username is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrDurationRequired    = errors.New("duration is required")
	ErrInvalidDuration     = errors.New("duration must be a non-negative whole number of minutes")
	ErrInvalidDate         = logquery.ErrInvalidDate
	ErrInvalidLimit        = logquery.ErrInvalidLimit
)

// ErrUserNotFound is returned when an operation names a user that does not exist.
var ErrUserNotFound = errors.New("user not found")

var validationErrors = []error{
	ErrUsernameRequired,
	ErrDescriptionRequired,
	ErrDurationRequired,
	ErrInvalidDuration,
	ErrInvalidDate,
	ErrInvalidLimit,
}

// IsValidation reports whether err is caused by bad client input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
