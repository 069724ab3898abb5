// Package assets provides database operations for cached image blobs.
package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/readlater/internal/entities"
)

var ErrAssetNotFound = errors.New("asset not found")

// Repository handles all asset database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new assets repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateAsset stores a blob for an article and returns the new row.
func (r *Repository) CreateAsset(ctx context.Context, articleID, url, contentType string, blob []byte) (*entities.Asset, error) {
	asset := &entities.Asset{
		ArticleID:   articleID,
		URL:         url,
		ContentType: contentType,
		Blob:        blob,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, fmt.Errorf("failed to store asset %s: %w", url, err)
	}
	return asset, nil
}

// GetAssetByID retrieves an asset including its blob.
func (r *Repository) GetAssetByID(ctx context.Context, id string) (*entities.Asset, error) {
	var asset entities.Asset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// ListAssetsForArticle returns asset metadata for an article without blobs.
func (r *Repository) ListAssetsForArticle(ctx context.Context, articleID string) ([]entities.Asset, error) {
	var list []entities.Asset
	err := r.db.WithContext(ctx).
		Select("id", "article_id", "url", "content_type", "created_at").
		Where("article_id = ?", articleID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
