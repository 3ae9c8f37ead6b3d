// Package repo – knowledge-base article persistence.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/domain"
)

// ListAllArticles returns every knowledge-base article. Used once at startup
// to build the in-memory vector index.
func ListAllArticles(ctx context.Context, db *gorm.DB) ([]domain.KnowledgeBaseArticle, error) {
	var out []domain.KnowledgeBaseArticle
	err := db.WithContext(ctx).Find(&out).Error
	return out, err
}

// ListArticlesForOrgs returns articles owned by any of the given
// organizations, ordered for grouped display: organization, then category,
// then title.
func ListArticlesForOrgs(ctx context.Context, db *gorm.DB, orgIDs ...string) ([]domain.KnowledgeBaseArticle, error) {
	var out []domain.KnowledgeBaseArticle
	err := db.WithContext(ctx).
		Preload("Organization").
		Where("organization_id IN ?", orgIDs).
		Order("organization_id asc").
		Order("category asc").
		Order("title asc").
		Find(&out).Error
	return out, err
}
