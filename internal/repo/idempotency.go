// Package repo – idempotency-key persistence for ticket creation replays.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/domain"
)

// GetIdempotency looks up a still-valid idempotency record for (userID, key).
// Expired or missing records yield (nil, nil).
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, key string, now time.Time) (*domain.IdempotencyKey, error) {
	var rec domain.IdempotencyKey
	err := db.WithContext(ctx).
		Where("user_id = ? AND idem_key = ? AND expires_at > ?", userID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// PutIdempotency records a completed ticket creation under (userID, key) with
// the given TTL. Racing duplicates lose on the unique index; that error is
// swallowed since the first writer's record is the one that matters.
func PutIdempotency(ctx context.Context, db *gorm.DB, userID, key, ticketID string, ttl time.Duration) error {
	rec := &domain.IdempotencyKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Key:       key,
		TicketID:  ticketID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	err := db.WithContext(ctx).Create(rec).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}
