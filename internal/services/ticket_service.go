// Package services – TicketService
//
// This file implements the ticket lifecycle: validated creation with the
// forced initial status, the append-only status-history audit trail, the
// closed_at bookkeeping against the configured closed-status set, the
// whitelisted update path, and assignment of new tickets to a team member
// based on open-ticket load.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// ticket/team identifiers.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/autocrm/helpdesk-backend/internal/config"
	"github.com/autocrm/helpdesk-backend/internal/domain"
	"github.com/autocrm/helpdesk-backend/internal/repo"
)

// CreateTicketInput carries the fields accepted on ticket creation.
// Status is not accepted: new tickets always start as "New".
type CreateTicketInput struct {
	TeamID      string
	Subject     string
	Description string
	Priority    string
	CustomerID  string
	Channel     string
}

// UpdateTicketPatch carries the only fields mutable through the update path.
// Nil pointers mean "leave unchanged". Any other field present in a request
// body is silently ignored by the handler before this struct is built.
type UpdateTicketPatch struct {
	Status     *string
	Priority   *string
	AssignedTo *string
	TeamID     *string
}

// TicketDetail is the full read model returned for a single ticket: the
// ticket with its joined rows, the visible messages, and the status catalog
// filtered for the caller.
type TicketDetail struct {
	Ticket   *domain.Ticket        `json:"ticket"`
	Messages []domain.Message      `json:"messages"`
	Statuses []domain.TicketStatus `json:"statuses"`
}

// TicketService coordinates ticket persistence, audit, and assignment.
type TicketService struct {
	DB *gorm.DB

	// AssignPolicy selects the team member for a new ticket:
	// config.AssignMostOpen (default) or config.AssignLeastOpen.
	AssignPolicy string
}

// NewTicketService constructs a TicketService with the default assignment
// policy.
func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{DB: db, AssignPolicy: config.AssignMostOpen}
}

// Create validates in, persists the ticket with status "New" plus its
// creation history row, and assigns it to a member of the target team.
//
// The ticket and the history row are written in one transaction; assignment
// is a separate write afterwards. When the team has no members, Create
// returns ErrNoTeamMembers while the ticket and history rows remain
// persisted (no compensating delete).
func (s *TicketService) Create(ctx context.Context, in CreateTicketInput, changedBy string) (*domain.Ticket, error) {
	tr := otel.Tracer("services/TicketService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("team.id", in.TeamID)),
	)
	defer span.End()

	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if _, err := repo.GetTeam(ctx, s.DB, in.TeamID); err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	t := &domain.Ticket{
		Subject:     strings.TrimSpace(in.Subject),
		Description: in.Description,
		Priority:    in.Priority,
		Status:      domain.StatusNew,
		Channel:     in.Channel,
		CustomerID:  in.CustomerID,
		TeamID:      in.TeamID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateTicket(ctx, tx, t); err != nil {
			return err
		}
		_, err := repo.AppendStatusHistory(ctx, tx, t.ID, nil, domain.StatusNew, changedBy)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.assign(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies the whitelisted patch to a ticket. A status change appends
// one history row and maintains closed_at against the closed-status set:
// stamped when the ticket transitions into the set and was not already
// closed, cleared when it transitions out. Both side effects apply
// regardless of whether other fields changed. All writes of one update run
// in a single transaction.
func (s *TicketService) Update(ctx context.Context, id string, patch UpdateTicketPatch, changedBy string) (*domain.Ticket, error) {
	tr := otel.Tracer("services/TicketService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("ticket.id", id)),
	)
	defer span.End()

	t, err := repo.GetTicket(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	changes := map[string]any{}
	if patch.Priority != nil {
		if !domain.ValidPriority(*patch.Priority) {
			return nil, fmt.Errorf("%w: priority must be one of urgent, high, normal, low", ErrValidation)
		}
		changes["priority"] = *patch.Priority
	}
	if patch.AssignedTo != nil {
		changes["assigned_to"] = *patch.AssignedTo
	}
	if patch.TeamID != nil {
		if _, err := repo.GetTeam(ctx, s.DB, *patch.TeamID); err != nil {
			if err == repo.ErrNotFound {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
		changes["team_id"] = *patch.TeamID
	}

	statusChanged := patch.Status != nil && *patch.Status != t.Status
	if statusChanged {
		ok, err := repo.StatusExists(ctx, s.DB, *patch.Status)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUnknownStatus
		}
		changes["status"] = *patch.Status

		// closed_at bookkeeping, independent of the other fields.
		if domain.IsClosedStatus(*patch.Status) {
			if !t.Closed() {
				changes["closed_at"] = time.Now().UTC()
			}
		} else if t.Closed() {
			changes["closed_at"] = nil
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if statusChanged {
			old := t.Status
			if _, err := repo.AppendStatusHistory(ctx, tx, t.ID, &old, *patch.Status, changedBy); err != nil {
				return err
			}
		}
		if len(changes) == 0 {
			return nil
		}
		return repo.UpdateTicketColumns(ctx, tx, t.ID, changes)
	})
	if err != nil {
		return nil, err
	}

	return repo.GetTicket(ctx, s.DB, id)
}

// Get returns the bare ticket row with joins, without visibility filtering.
// Handlers use it to run authorization before asking for the full detail.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	t, err := repo.GetTicket(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetDetail returns the ticket plus messages and the status catalog, both
// filtered for the caller: internal messages and internal-only statuses are
// withheld from non-employees, except that the ticket's current status is
// always present in the catalog slice.
func (s *TicketService) GetDetail(ctx context.Context, id string, caller domain.Principal) (*TicketDetail, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanViewTicket(t) {
		return nil, ErrForbidden
	}

	employee := caller.IsEmployee()
	msgs, err := repo.ListMessages(ctx, s.DB, id, employee)
	if err != nil {
		return nil, err
	}
	statuses, err := repo.ListStatuses(ctx, s.DB, !employee, t.Status)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: t, Messages: msgs, Statuses: statuses}, nil
}

// ListForUser returns the tickets where userID is requester or assignee.
// Prefer ListPageForUser for scalability on large datasets.
func (s *TicketService) ListForUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return repo.ListTicketsForUser(ctx, s.DB, userID)
}

// ListPageForUser returns a page of the user's tickets and the total count.
// It applies defaults for invalid page/pageSize.
func (s *TicketService) ListPageForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Ticket, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountTicketsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Ticket{}, 0, nil
	}

	items, err := repo.ListTicketsForUserPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// AddMessage appends a chat entry to a ticket the caller may view. Only
// employees may post internal notes.
func (s *TicketService) AddMessage(ctx context.Context, ticketID string, caller domain.Principal, content string, internal bool) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	t, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !caller.CanViewTicket(t) {
		return nil, ErrForbidden
	}
	if internal && !caller.IsEmployee() {
		return nil, ErrForbidden
	}
	return repo.CreateMessage(ctx, s.DB, ticketID, caller.UserID, content, internal)
}

// assign selects a member of the ticket's team by open-ticket count and
// persists the assignment. Counts are fetched per member; ties keep the
// first member encountered.
func (s *TicketService) assign(ctx context.Context, t *domain.Ticket) error {
	members, err := repo.EmployeesOfTeam(ctx, s.DB, t.TeamID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return ErrNoTeamMembers
	}

	var (
		chosen string
		best   int64
		first  = true
	)
	for _, m := range members {
		n, err := repo.CountOpenTickets(ctx, s.DB, m.UserID)
		if err != nil {
			return err
		}
		better := n > best
		if s.AssignPolicy == config.AssignLeastOpen {
			better = n < best
		}
		if first || better {
			chosen, best, first = m.UserID, n, false
		}
	}

	if err := repo.UpdateTicketColumns(ctx, s.DB, t.ID, map[string]any{"assigned_to": chosen}); err != nil {
		return err
	}
	t.AssignedTo = &chosen
	return nil
}

// validateCreate enforces the required-field and priority rules of the
// creation path.
func validateCreate(in CreateTicketInput) error {
	switch {
	case strings.TrimSpace(in.TeamID) == "":
		return fmt.Errorf("%w: team_id is required", ErrValidation)
	case strings.TrimSpace(in.Subject) == "":
		return fmt.Errorf("%w: subject is required", ErrValidation)
	case strings.TrimSpace(in.CustomerID) == "":
		return fmt.Errorf("%w: customer_id is required", ErrValidation)
	case strings.TrimSpace(in.Channel) == "":
		return fmt.Errorf("%w: channel is required", ErrValidation)
	case !domain.ValidPriority(in.Priority):
		return fmt.Errorf("%w: priority must be one of urgent, high, normal, low", ErrValidation)
	}
	return nil
}
