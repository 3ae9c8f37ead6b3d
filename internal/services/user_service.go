// Package services – UserService
//
// Creates user records with their polymorphic capability sub-row and serves
// user profiles. Which sub-table a new user lands in is decided by the
// organization: members of the vendor's own organization become employees,
// everyone else a customer.
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/domain"
	"github.com/autocrm/helpdesk-backend/internal/repo"
)

// UserService provides user account operations.
type UserService struct {
	DB *gorm.DB

	// GlobalOrgID is the sentinel vendor organization; users created under
	// it become employees.
	GlobalOrgID string
}

// NewUserService constructs a UserService bound to db.
func NewUserService(db *gorm.DB, globalOrgID string) *UserService {
	return &UserService{DB: db, GlobalOrgID: globalOrgID}
}

// Create inserts the user row and, based on the organization, an employee
// sub-row (default role agent) or a customer sub-row (not an org admin).
// userID may be empty, in which case one is generated.
func (s *UserService) Create(ctx context.Context, userID, email, orgID string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("%w: organization_id is required", ErrValidation)
	}

	var created *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repo.CreateUser(ctx, tx, userID, email, orgID)
		if err != nil {
			return err
		}
		if orgID == s.GlobalOrgID {
			if _, err := repo.CreateEmployee(ctx, tx, u.ID, domain.RoleAgent); err != nil {
				return err
			}
		} else {
			if _, err := repo.CreateCustomer(ctx, tx, u.ID, false); err != nil {
				return err
			}
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the user profile with nested employee/customer/organization
// data.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
