// Package services – TeamService
//
// Team listings are tenant-scoped: a caller sees the teams of their own
// organization plus the vendor's teams. The unrestricted listing is reserved
// for vendor staff.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/domain"
	"github.com/autocrm/helpdesk-backend/internal/repo"
)

// TeamService provides team listings scoped by organization.
type TeamService struct {
	DB          *gorm.DB
	GlobalOrgID string
}

// NewTeamService constructs a TeamService bound to db.
func NewTeamService(db *gorm.DB, globalOrgID string) *TeamService {
	return &TeamService{DB: db, GlobalOrgID: globalOrgID}
}

// ListForCaller returns teams belonging to the caller's organization plus
// the vendor organization.
func (s *TeamService) ListForCaller(ctx context.Context, caller domain.Principal) ([]domain.Team, error) {
	if caller.Anonymous() {
		return nil, ErrForbidden
	}
	if caller.OrganizationID == s.GlobalOrgID {
		return repo.ListTeamsForOrgs(ctx, s.DB, s.GlobalOrgID)
	}
	return repo.ListTeamsForOrgs(ctx, s.DB, caller.OrganizationID, s.GlobalOrgID)
}

// ListAll returns every team across organizations. Only employees of the
// vendor organization may call it.
func (s *TeamService) ListAll(ctx context.Context, caller domain.Principal) ([]domain.Team, error) {
	// Membership in the vendor org is not enough; customer accounts that
	// happen to live there stay tenant-scoped.
	if !caller.IsEmployee() || caller.OrganizationID != s.GlobalOrgID {
		return nil, ErrForbidden
	}
	return repo.ListAllTeams(ctx, s.DB)
}
