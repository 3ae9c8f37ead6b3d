// Team HTTP handlers.
//
//   - GET /teams      (caller's organization plus the vendor's)
//   - GET /teams/all  (every organization; vendor staff only)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autocrm/helpdesk-backend/internal/auth"
	"github.com/autocrm/helpdesk-backend/internal/domain"
)

// TeamsResponse is the JSON envelope for team listings.
type TeamsResponse struct {
	Teams []domain.Team `json:"teams"`
}

// ListTeams godoc
// @ID          listTeams
// @Summary     List teams visible to the caller
// @Tags        Teams
// @Produce     json
// @Success     200 {object} handlers.TeamsResponse
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Router      /teams [get]
// @Security    BearerAuth
func (h *Handlers) ListTeams(c *gin.Context) {
	caller := auth.PrincipalFrom(c)
	teams, err := h.teamSvc.ListForCaller(c.Request.Context(), caller)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, TeamsResponse{Teams: teams})
}

// ListAllTeams godoc
// @ID          listAllTeams
// @Summary     List every team across organizations
// @Description Restricted to employees of the vendor organization.
// @Tags        Teams
// @Produce     json
// @Success     200 {object} handlers.TeamsResponse
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403 {object} handlers.ErrorResponse "Forbidden"
// @Router      /teams/all [get]
// @Security    BearerAuth
func (h *Handlers) ListAllTeams(c *gin.Context) {
	caller := auth.PrincipalFrom(c)
	teams, err := h.teamSvc.ListAll(c.Request.Context(), caller)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, TeamsResponse{Teams: teams})
}
