// Package services defines the business logic for tickets, teams, users, and
// knowledge-base listings. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrTicketNotFound indicates that the requested ticket does not exist.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrTeamNotFound indicates that the referenced team does not exist.
	ErrTeamNotFound = errors.New("team not found")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrValidation is returned (usually wrapped with detail) when a request
	// is missing required fields or carries values outside the allowed sets.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when an authenticated caller is not permitted
	// to perform the operation on the target resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNoTeamMembers is returned when a newly created ticket cannot be
	// assigned because the target team has no members. The ticket and its
	// creation history row are already persisted at that point.
	ErrNoTeamMembers = errors.New("no team members available for assignment")

	// ErrUnknownStatus is returned when an update names a status that is not
	// part of the configured catalog.
	ErrUnknownStatus = errors.New("unknown ticket status")
)
