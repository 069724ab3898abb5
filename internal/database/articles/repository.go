// Package articles provides database operations for saved articles.
//
// # Usage
//
//	repo := articles.NewRepository(db)
//	article, err := repo.CreateArticle(ctx, articles.NewArticle{URL: url, Title: title})
package articles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/readlater/internal/entities"
)

var ErrArticleNotFound = errors.New("article not found")

// Repository handles all article database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new articles repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type NewArticle struct {
	URL         string
	Title       string
	ContentHTML string
	ContentText string
	ParseStatus entities.ParseStatus
	// Zero means now.
	SavedAt time.Time
}

// ArticlePatch holds optional field updates. Nil fields are left untouched.
type ArticlePatch struct {
	Title       *string
	ContentHTML *string
	ContentText *string
	ParseStatus *entities.ParseStatus
	IsArchived  *bool
	IsRead      *bool
}

func (p ArticlePatch) updates() map[string]any {
	updates := map[string]any{}
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.ContentHTML != nil {
		updates["content_html"] = *p.ContentHTML
	}
	if p.ContentText != nil {
		updates["content_text"] = *p.ContentText
	}
	if p.ParseStatus != nil {
		updates["parse_status"] = *p.ParseStatus
	}
	if p.IsArchived != nil {
		updates["is_archived"] = *p.IsArchived
	}
	if p.IsRead != nil {
		updates["is_read"] = *p.IsRead
	}
	return updates
}

// CreateArticle inserts a new article with a fresh id and timestamps.
func (r *Repository) CreateArticle(ctx context.Context, in NewArticle) (*entities.Article, error) {
	now := time.Now().UTC()
	savedAt := in.SavedAt
	if savedAt.IsZero() {
		savedAt = now
	}
	status := in.ParseStatus
	if status == "" {
		status = entities.ParseStatusSuccess
	}

	article := &entities.Article{
		URL:         in.URL,
		Title:       in.Title,
		ContentHTML: in.ContentHTML,
		ContentText: in.ContentText,
		ParseStatus: status,
		SavedAt:     savedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}
	return article, nil
}

// UpdateArticle applies patch and always refreshes updated_at.
func (r *Repository) UpdateArticle(ctx context.Context, id string, patch ArticlePatch) (*entities.Article, error) {
	updates := patch.updates()
	updates["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&entities.Article{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update article %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrArticleNotFound
	}
	return r.GetArticleByID(ctx, id)
}

// GetArticleByID retrieves an article by ID.
func (r *Repository) GetArticleByID(ctx context.Context, id string) (*entities.Article, error) {
	var article entities.Article
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// ListArticles returns articles newest-saved first.
func (r *Repository) ListArticles(ctx context.Context, includeArchived bool) ([]entities.Article, error) {
	var list []entities.Article
	query := r.db.WithContext(ctx).Order("saved_at DESC")
	if !includeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return list, nil
}

// MarkRead sets the read flag.
func (r *Repository) MarkRead(ctx context.Context, id string, read bool) (*entities.Article, error) {
	return r.UpdateArticle(ctx, id, ArticlePatch{IsRead: &read})
}

// SetArchived moves an article in or out of the archive.
func (r *Repository) SetArchived(ctx context.Context, id string, archived bool) (*entities.Article, error) {
	return r.UpdateArticle(ctx, id, ArticlePatch{IsArchived: &archived})
}

// CountArticles returns the number of stored articles.
func (r *Repository) CountArticles(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Article{}).Count(&count).Error
	return count, err
}
