// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they resolve the caller's principal, validate
// and normalize inputs, delegate to application services, and translate
// sentinel errors into the uniform envelope (see response.go / errors.go).
// Authorization decisions that depend on a loaded resource (ticket view and
// mutate rights) happen here, against the principal the auth middleware
// resolved.
package handlers

import (
	"context"
	"time"

	"github.com/autocrm/helpdesk-backend/internal/agent"
	"github.com/autocrm/helpdesk-backend/internal/domain"
	"github.com/autocrm/helpdesk-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// TicketService defines the ticket lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type TicketService interface {
	// Create persists a new ticket with the forced initial status and
	// assigns it to a team member.
	Create(ctx context.Context, in services.CreateTicketInput, changedBy string) (*domain.Ticket, error)
	// Update applies the whitelisted patch and maintains history/closed_at.
	Update(ctx context.Context, id string, patch services.UpdateTicketPatch, changedBy string) (*domain.Ticket, error)
	// Get returns the bare ticket with joins, for authorization checks.
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	// GetDetail returns the caller-filtered full read model.
	GetDetail(ctx context.Context, id string, caller domain.Principal) (*services.TicketDetail, error)
	// ListPageForUser returns a page of tickets where userID is requester
	// or assignee, plus the total count.
	ListPageForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Ticket, int64, error)
	// AddMessage appends a chat entry to a viewable ticket.
	AddMessage(ctx context.Context, ticketID string, caller domain.Principal, content string, internal bool) (*domain.Message, error)
}

// UserService defines user account operations.
type UserService interface {
	Create(ctx context.Context, userID, email, orgID string) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
}

// TeamService defines tenant-scoped team listings.
type TeamService interface {
	ListForCaller(ctx context.Context, caller domain.Principal) ([]domain.Team, error)
	ListAll(ctx context.Context, caller domain.Principal) ([]domain.Team, error)
}

// KBService defines the knowledge-base browsing surface.
type KBService interface {
	ListGrouped(ctx context.Context, caller domain.Principal) (services.GroupedArticles, error)
}

// TriageAgent defines the AI triage operations. It is nil-able at wiring
// time: with no provider configured the chat endpoints report the agent as
// unavailable.
type TriageAgent interface {
	HandleChatQuery(ctx context.Context, query, orgID string, teamNames []string, history []agent.Turn) (*agent.TriageResult, error)
	EvaluateTicket(ctx context.Context, in agent.EvaluateInput) (*agent.TriageResult, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for users, teams, tickets, the
// knowledge base, and the triage agent. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	ticketSvc TicketService
	userSvc   UserService
	teamSvc   TeamService
	kbSvc     KBService
	triage    TriageAgent

	// IdempotencyTTL bounds how long a replayed Idempotency-Key on ticket
	// creation keeps returning the original ticket. Zero disables replays.
	IdempotencyTTL time.Duration
}

// New constructs a Handlers instance bound to the given services. triage may
// be nil when no completion provider is configured.
func New(ticketSvc TicketService, userSvc UserService, teamSvc TeamService, kbSvc KBService, triage TriageAgent) *Handlers {
	return &Handlers{
		ticketSvc: ticketSvc,
		userSvc:   userSvc,
		teamSvc:   teamSvc,
		kbSvc:     kbSvc,
		triage:    triage,
	}
}
