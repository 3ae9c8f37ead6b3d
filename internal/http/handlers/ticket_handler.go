// Ticket HTTP handlers.
//
//   - GET   /tickets               (requester-or-assignee listing)
//   - POST  /tickets               (create; Idempotency-Key aware)
//   - GET   /tickets/{id}          (full detail, caller-filtered)
//   - PATCH /tickets/{id}          (whitelisted update)
//   - POST  /tickets/{id}/messages (append a chat entry)
//
// Handlers are transport-thin: they resolve the principal, enforce
// resource-level authorization, and delegate to TicketService. The PATCH
// body may carry any fields; only status, priority, assigned_to, and
// team_id are ever applied.
//
// Idempotency: if the client supplies an Idempotency-Key header and a
// previous successful creation exists for (user, key), the handler returns
// that ticket and sets `Idempotency-Replayed: true`.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/auth"
	"github.com/autocrm/helpdesk-backend/internal/domain"
	"github.com/autocrm/helpdesk-backend/internal/repo"
	"github.com/autocrm/helpdesk-backend/internal/services"
	"github.com/autocrm/helpdesk-backend/internal/utils"
)

//
// DTOs
//

// CreateTicketRequest is the JSON payload for opening a ticket. Status
// cannot be supplied: new tickets always start as "New". CustomerID is
// honored only for employees acting on a customer's behalf; customers
// always open tickets as themselves.
type CreateTicketRequest struct {
	TeamID      string `json:"team_id" binding:"required" example:"b418ee7e-0c3a-4f5e-bd6a-52c0d34a3fd2"`
	Subject     string `json:"subject" binding:"required,min=1" example:"Cannot reset my password"`
	Description string `json:"description" example:"The reset email never arrives."`
	Priority    string `json:"priority" example:"normal"`
	Channel     string `json:"channel" example:"web"`
	CustomerID  string `json:"customer_id" example:"7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab"`
}

// TicketResponse wraps a single ticket.
type TicketResponse struct {
	Ticket *domain.Ticket `json:"ticket"`
}

// Pagination describes the page window of a listing response.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// TicketsResponse wraps a page of tickets and pagination information.
type TicketsResponse struct {
	Tickets    []domain.Ticket `json:"tickets"`
	Pagination Pagination      `json:"pagination"`
}

// PostTicketMessageRequest is the JSON payload for appending a chat entry.
// IsInternal notes are accepted from employees only.
type PostTicketMessageRequest struct {
	Content    string `json:"content" binding:"required,min=1" example:"Any update on this?"`
	IsInternal bool   `json:"is_internal"`
}

// TicketMessageResponse wraps a newly created chat entry.
type TicketMessageResponse struct {
	Message *domain.Message `json:"message"`
}

//
// Handlers
//

// ListTickets godoc
// @ID          listTickets
// @Summary     List the caller's tickets (paginated)
// @Description Returns a page of tickets where the caller is requester or
// @Description assignee, most recent first.
// @Tags        Tickets
// @Produce     json
// @Param       page      query int false "Page number (1-based)"      default(1)
// @Param       page_size query int false "Page size (max 100)"        default(20)
// @Success     200 {object} handlers.TicketsResponse
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Router      /tickets [get]
// @Security    BearerAuth
func (h *Handlers) ListTickets(c *gin.Context) {
	caller := auth.PrincipalFrom(c)
	page, pageSize := clampPagination(c)

	tickets, total, err := h.ticketSvc.ListPageForUser(c.Request.Context(), caller.UserID, page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, TicketsResponse{
		Tickets: tickets,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// CreateTicket godoc
// @ID          createTicket
// @Summary     Open a ticket
// @Description Creates a ticket with the forced initial status "New",
// @Description records the first history entry, and assigns a team member.
// @Description Supports idempotency via the Idempotency-Key header.
// @Tags        Tickets
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Idempotency key for safe retries"
// @Param       body body handlers.CreateTicketRequest true "Ticket payload"
// @Success     201 {object} handlers.TicketResponse
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404 {object} handlers.ErrorResponse "Team not found"
// @Router      /tickets [post]
// @Security    BearerAuth
func (h *Handlers) CreateTicket(c *gin.Context) {
	ctx := c.Request.Context()
	caller := auth.PrincipalFrom(c)

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "team_id and subject are required")
		return
	}

	// Idempotency replay path.
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	db := h.ticketDB()
	if idemKey != "" && db != nil && h.IdempotencyTTL > 0 {
		if rec, err := repo.GetIdempotency(ctx, db, caller.UserID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := h.ticketSvc.Get(ctx, rec.TicketID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, TicketResponse{Ticket: prev})
				return
			}
		}
	}

	in := services.CreateTicketInput{
		TeamID:      req.TeamID,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
		Channel:     req.Channel,
		CustomerID:  caller.UserID,
	}
	if caller.IsEmployee() && req.CustomerID != "" {
		in.CustomerID = req.CustomerID
	}

	t, err := h.ticketSvc.Create(ctx, in, caller.UserID)
	if err != nil {
		failFromService(c, err)
		return
	}

	// Idempotency store path, best effort.
	if idemKey != "" && db != nil && h.IdempotencyTTL > 0 {
		_ = repo.PutIdempotency(ctx, db, caller.UserID, idemKey, t.ID, h.IdempotencyTTL)
	}

	ok(c, http.StatusCreated, TicketResponse{Ticket: t})
}

// GetTicket godoc
// @ID          getTicket
// @Summary     Fetch a ticket with messages and the status catalog
// @Description Internal messages and internal-only statuses are withheld
// @Description from non-employees.
// @Tags        Tickets
// @Produce     json
// @Param       id path string true "Ticket ID (UUID)" format(uuid)
// @Success     200 {object} services.TicketDetail
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403 {object} handlers.ErrorResponse "Forbidden"
// @Failure     404 {object} handlers.ErrorResponse "Ticket not found"
// @Router      /tickets/{id} [get]
// @Security    BearerAuth
func (h *Handlers) GetTicket(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ticket id must be a UUID")
		return
	}

	caller := auth.PrincipalFrom(c)
	detail, err := h.ticketSvc.GetDetail(c.Request.Context(), id, caller)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, detail)
}

// UpdateTicket godoc
// @ID          updateTicket
// @Summary     Update a ticket
// @Description Applies status/priority/assigned_to/team_id from the body;
// @Description all other fields are silently ignored. Status changes append
// @Description a history entry and maintain the closed timestamp.
// @Tags        Tickets
// @Accept      json
// @Produce     json
// @Param       id   path string         true "Ticket ID (UUID)" format(uuid)
// @Param       body body map[string]any true "Patch document"
// @Success     200 {object} handlers.TicketResponse
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403 {object} handlers.ErrorResponse "Forbidden"
// @Failure     404 {object} handlers.ErrorResponse "Ticket not found"
// @Router      /tickets/{id} [patch]
// @Security    BearerAuth
func (h *Handlers) UpdateTicket(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ticket id must be a UUID")
		return
	}

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request body must be a JSON object")
		return
	}

	caller := auth.PrincipalFrom(c)
	t, err := h.ticketSvc.Get(ctx, id)
	if err != nil {
		failFromService(c, err)
		return
	}
	if !caller.CanMutateTicket(t) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to modify this ticket")
		return
	}

	patch, err := buildPatch(body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	updated, err := h.ticketSvc.Update(ctx, id, patch, caller.UserID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, TicketResponse{Ticket: updated})
}

// PostTicketMessage godoc
// @ID          postTicketMessage
// @Summary     Append a message to a ticket
// @Tags        Tickets
// @Accept      json
// @Produce     json
// @Param       id   path string                            true "Ticket ID (UUID)" format(uuid)
// @Param       body body handlers.PostTicketMessageRequest true "Message payload"
// @Success     201 {object} handlers.TicketMessageResponse
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403 {object} handlers.ErrorResponse "Forbidden"
// @Failure     404 {object} handlers.ErrorResponse "Ticket not found"
// @Router      /tickets/{id}/messages [post]
// @Security    BearerAuth
func (h *Handlers) PostTicketMessage(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ticket id must be a UUID")
		return
	}

	var req PostTicketMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	caller := auth.PrincipalFrom(c)
	m, err := h.ticketSvc.AddMessage(c.Request.Context(), id, caller, req.Content, req.IsInternal)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, TicketMessageResponse{Message: m})
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// buildPatch extracts the mutable fields from an arbitrary patch document.
// Unknown keys are dropped without error; known keys must carry strings.
func buildPatch(body map[string]json.RawMessage) (services.UpdateTicketPatch, error) {
	var patch services.UpdateTicketPatch
	for key, dst := range map[string]**string{
		"status":      &patch.Status,
		"priority":    &patch.Priority,
		"assigned_to": &patch.AssignedTo,
		"team_id":     &patch.TeamID,
	} {
		raw, present := body[key]
		if !present {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return services.UpdateTicketPatch{}, fmt.Errorf("%s must be a string", key)
		}
		*dst = &s
	}
	return patch, nil
}

// ticketDB exposes the underlying database of the concrete ticket service
// for the idempotency lookups. Fake services in tests return nil, which
// disables replays.
func (h *Handlers) ticketDB() *gorm.DB {
	if svc, okSvc := h.ticketSvc.(*services.TicketService); okSvc {
		return svc.DB
	}
	return nil
}
