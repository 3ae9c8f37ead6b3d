// Knowledge-base HTTP handlers.
//
//   - GET /kb (soft auth: anonymous callers see only the vendor's articles)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autocrm/helpdesk-backend/internal/auth"
	"github.com/autocrm/helpdesk-backend/internal/services"
)

// KBResponse is the JSON envelope for the grouped article listing:
// organization name → category → articles.
type KBResponse struct {
	Articles services.GroupedArticles `json:"articles"`
}

// ListKB godoc
// @ID          listKB
// @Summary     Browse knowledge-base articles
// @Description Returns articles grouped by organization and category. A
// @Description valid bearer token widens the listing to the caller's
// @Description organization; without one only the vendor's articles appear.
// @Tags        KnowledgeBase
// @Produce     json
// @Success     200 {object} handlers.KBResponse
// @Router      /kb [get]
func (h *Handlers) ListKB(c *gin.Context) {
	caller := auth.PrincipalFrom(c)
	grouped, err := h.kbSvc.ListGrouped(c.Request.Context(), caller)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, KBResponse{Articles: grouped})
}
