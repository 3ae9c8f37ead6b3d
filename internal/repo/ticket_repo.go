// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for tickets, their
// status history, and ticket messages.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a ticket is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateTicket inserts a new ticket row. ID and CreatedAt are filled in;
// the caller is responsible for having set status and closed_at per the
// lifecycle rules.
func CreateTicket(ctx context.Context, db *gorm.DB, t *domain.Ticket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(t).Error
}

// GetTicket fetches a ticket by id with requester, assignee, team, tags,
// custom fields, and status history preloaded. Returns ErrNotFound when the
// ticket does not exist.
func GetTicket(ctx context.Context, db *gorm.DB, id string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := db.WithContext(ctx).
		Preload("Requester").
		Preload("Requester.Organization").
		Preload("Assignee").
		Preload("Team").
		Preload("Tags").
		Preload("Fields").
		Preload("History", func(tx *gorm.DB) *gorm.DB { return tx.Order("changed_at asc") }).
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTicketsForUser returns tickets where userID is the requester or the
// assignee, most recent first, with related rows preloaded.
func ListTicketsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := db.WithContext(ctx).
		Preload("Requester").
		Preload("Requester.Organization").
		Preload("Assignee").
		Preload("Team").
		Preload("Tags").
		Preload("Fields").
		Preload("History", func(tx *gorm.DB) *gorm.DB { return tx.Order("changed_at asc") }).
		Where("customer_id = ? OR assigned_to = ?", userID, userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountTicketsForUser returns the total number of tickets where userID is
// the requester or the assignee, for pagination metadata.
func CountTicketsForUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("customer_id = ? OR assigned_to = ?", userID, userID).
		Count(&total).Error
	return total, err
}

// ListTicketsForUserPage returns a page of the user's tickets, most recent
// first. Use CountTicketsForUser to obtain the total.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListTicketsForUserPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := db.WithContext(ctx).
		Preload("Requester").
		Preload("Requester.Organization").
		Preload("Assignee").
		Preload("Team").
		Preload("Tags").
		Preload("Fields").
		Preload("History", func(tx *gorm.DB) *gorm.DB { return tx.Order("changed_at asc") }).
		Where("customer_id = ? OR assigned_to = ?", userID, userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateTicketColumns applies the given column changes to a ticket.
// Returns ErrNotFound when no row was affected.
func UpdateTicketColumns(ctx context.Context, db *gorm.DB, id string, changes map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("id = ?", id).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendStatusHistory inserts one immutable audit row for a status
// transition. oldStatus is nil for the creation entry.
func AppendStatusHistory(ctx context.Context, db *gorm.DB, ticketID string, oldStatus *string, newStatus, changedBy string) (*domain.TicketStatusHistory, error) {
	h := &domain.TicketStatusHistory{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
		ChangedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(h).Error; err != nil {
		return nil, err
	}
	return h, nil
}

// ListStatusHistory returns the audit trail of a ticket in chronological order.
func ListStatusHistory(ctx context.Context, db *gorm.DB, ticketID string) ([]domain.TicketStatusHistory, error) {
	var out []domain.TicketStatusHistory
	err := db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("changed_at asc").
		Find(&out).Error
	return out, err
}

// CreateMessage inserts a ticket-scoped message authored by userID.
func CreateMessage(ctx context.Context, db *gorm.DB, ticketID, userID, content string, internal bool) (*domain.Message, error) {
	m := &domain.Message{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		UserID:     userID,
		Content:    content,
		IsInternal: internal,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns the messages of a ticket in chronological order.
// When includeInternal is false, internal notes are filtered out.
func ListMessages(ctx context.Context, db *gorm.DB, ticketID string, includeInternal bool) ([]domain.Message, error) {
	tx := db.WithContext(ctx).
		Preload("Author").
		Where("ticket_id = ?", ticketID)
	if !includeInternal {
		tx = tx.Where("is_internal = ?", false)
	}
	var out []domain.Message
	err := tx.Order("created_at asc").Find(&out).Error
	return out, err
}

// ListStatuses returns the status catalog. When customerOnly is true the
// result is restricted to customer-visible statuses, except that the entry
// named by keep (typically the ticket's current status) is always included.
func ListStatuses(ctx context.Context, db *gorm.DB, customerOnly bool, keep string) ([]domain.TicketStatus, error) {
	tx := db.WithContext(ctx).Model(&domain.TicketStatus{})
	if customerOnly {
		tx = tx.Where("customer_access = ? OR status = ?", true, keep)
	}
	var out []domain.TicketStatus
	err := tx.Order("status asc").Find(&out).Error
	return out, err
}

// StatusExists reports whether the catalog contains the given status.
func StatusExists(ctx context.Context, db *gorm.DB, status string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.TicketStatus{}).
		Where("status = ?", status).
		Count(&n).Error
	return n > 0, err
}

// CountOpenTickets returns the number of open (not closed) tickets currently
// assigned to userID.
func CountOpenTickets(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("assigned_to = ? AND closed_at IS NULL", userID).
		Count(&n).Error
	return n, err
}
