// Triage chat HTTP handlers.
//
//   - POST /chat          (conversational triage for the caller's org)
//   - POST /chat/evaluate (offline triage of an existing ticket; employees)
//
// The agent's JSON object is returned to the client verbatim: the frontend
// branches on which of article_id / ticket / response is present. Provider
// errors pass through in the error envelope unchanged.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/autocrm/helpdesk-backend/internal/agent"
	"github.com/autocrm/helpdesk-backend/internal/auth"
)

// ChatRequest is the JSON payload for a triage query. History carries the
// prior turns of the conversation, oldest first.
type ChatRequest struct {
	Query   string       `json:"query" binding:"required,min=1" example:"How do I export my invoices?"`
	History []agent.Turn `json:"history"`
}

// EvaluateRequest selects the ticket to run the offline triage against.
type EvaluateRequest struct {
	TicketID string `json:"ticket_id" binding:"required" example:"4f3d6f1e-9a2b-4c8d-b5e6-7f8a9b0c1d2e"`
}

// Chat godoc
// @ID          chat
// @Summary     Ask the triage agent
// @Description Retrieves relevant knowledge-base articles for the caller's
// @Description organization and returns the agent's decision: an article
// @Description reference, a ticket draft, or a free-text reply.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       body body handlers.ChatRequest true "Triage query"
// @Success     200 {object} agent.TriageResult
// @Failure     400 {object} handlers.ErrorResponse "Bad request / provider error"
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure     503 {object} handlers.ErrorResponse "Agent not configured"
// @Router      /chat [post]
// @Security    BearerAuth
func (h *Handlers) Chat(c *gin.Context) {
	if h.triage == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeAgentUnavailable, "triage agent is not configured")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query required")
		return
	}

	ctx := c.Request.Context()
	caller := auth.PrincipalFrom(c)

	teams, err := h.teamSvc.ListForCaller(ctx, caller)
	if err != nil {
		failFromService(c, err)
		return
	}
	names := make([]string, 0, len(teams))
	for _, t := range teams {
		names = append(names, t.Name)
	}

	res, err := h.triage.HandleChatQuery(ctx, req.Query, caller.OrganizationID, names, req.History)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeTriageFailed, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Raw)
}

// Evaluate godoc
// @ID          evaluateTicket
// @Summary     Evaluate a ticket against the knowledge base
// @Description Asks the agent whether an existing article resolves the
// @Description ticket ({"article_id"}) or human handling is needed
// @Description ({"response"}). Employees only.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       body body handlers.EvaluateRequest true "Ticket selector"
// @Success     200 {object} agent.TriageResult
// @Failure     400 {object} handlers.ErrorResponse "Bad request / provider error"
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403 {object} handlers.ErrorResponse "Forbidden"
// @Failure     404 {object} handlers.ErrorResponse "Ticket not found"
// @Failure     503 {object} handlers.ErrorResponse "Agent not configured"
// @Router      /chat/evaluate [post]
// @Security    BearerAuth
func (h *Handlers) Evaluate(c *gin.Context) {
	if h.triage == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeAgentUnavailable, "triage agent is not configured")
		return
	}

	caller := auth.PrincipalFrom(c)
	if !caller.IsEmployee() {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "employees only")
		return
	}

	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ticket_id required")
		return
	}
	if _, err := uuid.Parse(req.TicketID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ticket_id must be a UUID")
		return
	}

	ctx := c.Request.Context()
	t, err := h.ticketSvc.Get(ctx, req.TicketID)
	if err != nil {
		failFromService(c, err)
		return
	}

	in := agent.EvaluateInput{
		Subject:     t.Subject,
		Description: t.Description,
		Priority:    t.Priority,
	}
	if t.Team != nil {
		in.TeamName = t.Team.Name
	}
	if t.Requester != nil {
		in.OrganizationID = t.Requester.OrganizationID
	}

	res, err := h.triage.EvaluateTicket(ctx, in)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeTriageFailed, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Raw)
}
