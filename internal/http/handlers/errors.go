// HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and form a stable, machine-readable
// taxonomy alongside the HTTP status. Handlers pick the most specific
// matching code and pass it to fail(). Upstream failure text (database,
// completion provider) passes through in the message unchanged.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autocrm/helpdesk-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeTriageFailed     = "triage_failed"
	ErrCodeAgentUnavailable = "agent_unavailable"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failFromService translates the service-layer sentinel errors into HTTP
// responses. Unrecognized upstream errors (database, completion provider)
// surface as 400 with the message passed through unchanged; only a failed
// assignment is a 500, since the ticket rows are already persisted.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "ticket not found")
	case errors.Is(err, services.ErrTeamNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "team not found")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed")
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrUnknownStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown ticket status")
	case errors.Is(err, services.ErrNoTeamMembers):
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	}
}
