// Package repo – team persistence.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/domain"
)

// GetTeam fetches a team by id. Returns ErrNotFound when missing.
func GetTeam(ctx context.Context, db *gorm.DB, id string) (*domain.Team, error) {
	var t domain.Team
	err := db.WithContext(ctx).
		Preload("Organization").
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTeamsForOrgs returns teams owned by any of the given organizations,
// with the owning organization preloaded.
func ListTeamsForOrgs(ctx context.Context, db *gorm.DB, orgIDs ...string) ([]domain.Team, error) {
	var out []domain.Team
	err := db.WithContext(ctx).
		Preload("Organization").
		Where("organization_id IN ?", orgIDs).
		Order("name asc").
		Find(&out).Error
	return out, err
}

// ListAllTeams returns every team across all organizations.
func ListAllTeams(ctx context.Context, db *gorm.DB) ([]domain.Team, error) {
	var out []domain.Team
	err := db.WithContext(ctx).
		Preload("Organization").
		Order("name asc").
		Find(&out).Error
	return out, err
}
