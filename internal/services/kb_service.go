// Package services – KBService
//
// Serves the knowledge-base browsing surface: articles scoped to the
// caller's organization plus the vendor's, grouped by organization name and
// category. Anonymous callers (soft auth) see only the vendor articles.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/domain"
	"github.com/autocrm/helpdesk-backend/internal/repo"
)

// GroupedArticles maps organization name → category → articles, in the
// stable order the repository returns them.
type GroupedArticles map[string]map[string][]domain.KnowledgeBaseArticle

// KBService provides knowledge-base listings.
type KBService struct {
	DB          *gorm.DB
	GlobalOrgID string
}

// NewKBService constructs a KBService bound to db.
func NewKBService(db *gorm.DB, globalOrgID string) *KBService {
	return &KBService{DB: db, GlobalOrgID: globalOrgID}
}

// ListGrouped returns the articles visible to the caller, grouped for
// display. Articles without an organization name fall under "General",
// uncategorized ones under "Uncategorized".
func (s *KBService) ListGrouped(ctx context.Context, caller domain.Principal) (GroupedArticles, error) {
	orgIDs := []string{s.GlobalOrgID}
	if !caller.Anonymous() && caller.OrganizationID != "" && caller.OrganizationID != s.GlobalOrgID {
		orgIDs = append(orgIDs, caller.OrganizationID)
	}
	articles, err := repo.ListArticlesForOrgs(ctx, s.DB, orgIDs...)
	if err != nil {
		return nil, err
	}

	grouped := make(GroupedArticles)
	for _, a := range articles {
		orgName := "General"
		if a.Organization != nil && a.Organization.Name != "" {
			orgName = a.Organization.Name
		}
		category := a.Category
		if category == "" {
			category = "Uncategorized"
		}
		if grouped[orgName] == nil {
			grouped[orgName] = make(map[string][]domain.KnowledgeBaseArticle)
		}
		grouped[orgName][category] = append(grouped[orgName][category], a)
	}
	return grouped, nil
}
