package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/domain"
	"github.com/autocrm/helpdesk-backend/internal/repo"
)

// Resolver turns bearer tokens into application principals by combining
// token verification with a database lookup of the user's kind and role.
type Resolver struct {
	DB       *gorm.DB
	Verifier Verifier
}

// NewResolver wires a Resolver over the given database and verifier.
func NewResolver(db *gorm.DB, v Verifier) *Resolver {
	return &Resolver{DB: db, Verifier: v}
}

// Resolve verifies the token and loads the matching user row. A token whose
// subject has no user row is treated as invalid: accounts are provisioned
// through user creation before they can act.
func (r *Resolver) Resolve(ctx context.Context, token string) (domain.Principal, error) {
	id, err := r.Verifier.Verify(ctx, token)
	if err != nil {
		return domain.Principal{}, err
	}

	u, err := repo.GetUser(ctx, r.DB, id.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Principal{}, ErrInvalidToken
		}
		return domain.Principal{}, err
	}

	p := domain.Principal{
		UserID:         u.ID,
		Email:          u.Email,
		OrganizationID: u.OrganizationID,
		Kind:           domain.PrincipalCustomer,
	}
	switch {
	case u.Employee != nil:
		p.Kind = domain.PrincipalEmployee
		p.Role = u.Employee.Role
	case u.Customer != nil:
		p.IsOrgAdmin = u.Customer.IsOrgAdmin
	}
	return p, nil
}
