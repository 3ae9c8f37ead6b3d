// Package repo – user, employee, and customer persistence.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/domain"
)

// CreateUser inserts a user row. When id is empty a UUID is generated (the
// managed auth service usually supplies the id so both sides agree).
func CreateUser(ctx context.Context, db *gorm.DB, id, email, orgID string) (*domain.User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	u := &domain.User{
		ID:             id,
		Email:          email,
		OrganizationID: orgID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// CreateEmployee inserts the employee sub-row for a user.
func CreateEmployee(ctx context.Context, db *gorm.DB, userID, role string) (*domain.Employee, error) {
	e := &domain.Employee{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// CreateCustomer inserts the customer sub-row for a user.
func CreateCustomer(ctx context.Context, db *gorm.DB, userID string, orgAdmin bool) (*domain.Customer, error) {
	c := &domain.Customer{
		ID:         uuid.NewString(),
		UserID:     userID,
		IsOrgAdmin: orgAdmin,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetUser fetches a user by id with the employee/customer sub-rows and the
// owning organization preloaded. Returns ErrNotFound when missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Preload("Organization").
		Preload("Employee").
		Preload("Customer").
		First(&u, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmployeesOfTeam returns the employees whose team_id equals teamID.
func EmployeesOfTeam(ctx context.Context, db *gorm.DB, teamID string) ([]domain.Employee, error) {
	var out []domain.Employee
	err := db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Find(&out).Error
	return out, err
}
