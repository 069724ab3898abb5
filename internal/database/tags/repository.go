// Package tags provides database operations for tag management.
//
// Tags and the article_tags join table are always written together inside a
// single transaction so readers never observe a join row pointing at a
// missing tag.
//
// # Interface Implementation
//
//	var _ http.TagStore = (*Repository)(nil)
//
// # Usage
//
//	repo := tags.NewRepository(db)
//	tag, err := repo.GetOrCreateTag(ctx, "fiction")
//	err = repo.SetTagsForArticle(ctx, articleID, []string{tag.ID})
package tags

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/readlater/internal/entities"
)

var (
	ErrEmptyTagName = errors.New("tag name is empty")
	ErrTagNotFound  = errors.New("tag not found")
)

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NormalizeTagName trims surrounding whitespace. Case is preserved.
func NormalizeTagName(name string) string {
	return strings.TrimSpace(name)
}

// CreateTag returns the tag with the normalized name, creating it if needed.
// A blank name yields (nil, nil).
func (r *Repository) CreateTag(ctx context.Context, name string) (*entities.Tag, error) {
	if NormalizeTagName(name) == "" {
		return nil, nil
	}
	return r.GetOrCreateTag(ctx, name)
}

// GetOrCreateTag retrieves or creates a tag by exact (trimmed) name.
// Concurrent callers with the same name all receive the same row.
func (r *Repository) GetOrCreateTag(ctx context.Context, name string) (*entities.Tag, error) {
	name = NormalizeTagName(name)
	if name == "" {
		return nil, ErrEmptyTagName
	}

	var tag entities.Tag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertTagsIgnoringDuplicates(tx, []string{name}); err != nil {
			return err
		}
		return tx.Where("name = ?", name).First(&tag).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get or create tag %q: %w", name, err)
	}
	return &tag, nil
}

// ListTags returns all tags ordered by name.
func (r *Repository) ListTags(ctx context.Context) ([]entities.Tag, error) {
	var list []entities.Tag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

// GetTagByID retrieves a tag by ID.
func (r *Repository) GetTagByID(ctx context.Context, id string) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetTagsForArticle returns the tags linked to an article, sorted by name.
func (r *Repository) GetTagsForArticle(ctx context.Context, articleID string) ([]entities.Tag, error) {
	var list []entities.Tag
	err := r.db.WithContext(ctx).
		Joins("JOIN article_tags ON article_tags.tag_id = tags.id").
		Where("article_tags.article_id = ?", articleID).
		Order("tags.name ASC").
		Find(&list).Error
	return list, err
}

// ListArticleTagsForArticles returns tags grouped by article id for a batch
// of articles. Articles without tags are absent from the map.
func (r *Repository) ListArticleTagsForArticles(ctx context.Context, articleIDs []string) (map[string][]entities.Tag, error) {
	result := make(map[string][]entities.Tag)
	if len(articleIDs) == 0 {
		return result, nil
	}

	db := r.db.WithContext(ctx)

	var links []entities.ArticleTag
	if err := db.Where("article_id IN ?", articleIDs).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to load article tags: %w", err)
	}
	if len(links) == 0 {
		return result, nil
	}

	tagIDs := make([]string, 0, len(links))
	for _, link := range links {
		tagIDs = append(tagIDs, link.TagID)
	}

	var list []entities.Tag
	if err := db.Where("id IN ?", tagIDs).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	byID := make(map[string]entities.Tag, len(list))
	for _, tag := range list {
		byID[tag.ID] = tag
	}

	for _, link := range links {
		if tag, ok := byID[link.TagID]; ok {
			result[link.ArticleID] = append(result[link.ArticleID], tag)
		}
	}
	for id := range result {
		sort.Slice(result[id], func(i, j int) bool { return result[id][i].Name < result[id][j].Name })
	}
	return result, nil
}

// SetTagsForArticle makes the article's tag set exactly tagIDs. Only the
// difference is written; when nothing changes no rows are touched.
func (r *Repository) SetTagsForArticle(ctx context.Context, articleID string, tagIDs []string) error {
	desired := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if id != "" {
			desired[id] = struct{}{}
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []string
		if err := tx.Model(&entities.ArticleTag{}).
			Where("article_id = ?", articleID).
			Pluck("tag_id", &current).Error; err != nil {
			return fmt.Errorf("failed to load current tags: %w", err)
		}

		existing := make(map[string]struct{}, len(current))
		var toRemove []string
		for _, id := range current {
			existing[id] = struct{}{}
			if _, keep := desired[id]; !keep {
				toRemove = append(toRemove, id)
			}
		}

		var toAdd []entities.ArticleTag
		for id := range desired {
			if _, ok := existing[id]; !ok {
				toAdd = append(toAdd, entities.ArticleTag{ArticleID: articleID, TagID: id})
			}
		}

		if len(toRemove) > 0 {
			if err := tx.Where("article_id = ? AND tag_id IN ?", articleID, toRemove).
				Delete(&entities.ArticleTag{}).Error; err != nil {
				return fmt.Errorf("failed to remove article tags: %w", err)
			}
		}
		if len(toAdd) > 0 {
			if err := insertLinksIgnoringDuplicates(tx, toAdd); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddTagsToArticle creates any missing tags by name and links all of them to
// the article in one transaction. Existing links are left as they are.
func (r *Repository) AddTagsToArticle(ctx context.Context, articleID string, names []string) ([]entities.Tag, error) {
	seen := make(map[string]struct{}, len(names))
	var normalized []string
	for _, name := range names {
		name = NormalizeTagName(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	var list []entities.Tag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertTagsIgnoringDuplicates(tx, normalized); err != nil {
			return err
		}
		if err := tx.Where("name IN ?", normalized).Order("name ASC").Find(&list).Error; err != nil {
			return fmt.Errorf("failed to load tags: %w", err)
		}

		links := make([]entities.ArticleTag, 0, len(list))
		for _, tag := range list {
			links = append(links, entities.ArticleTag{ArticleID: articleID, TagID: tag.ID})
		}
		return insertLinksIgnoringDuplicates(tx, links)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add tags to article %s: %w", articleID, err)
	}
	return list, nil
}

// DeleteTag removes the tag and every link to it atomically.
func (r *Repository) DeleteTag(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&entities.ArticleTag{}).Error; err != nil {
			return fmt.Errorf("failed to remove tag links: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&entities.Tag{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete tag: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTagNotFound
		}
		return nil
	})
}

// DeleteOrphanTags removes tags not linked to any article.
func (r *Repository) DeleteOrphanTags(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM tags
		WHERE id NOT IN (SELECT tag_id FROM article_tags)
	`)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func insertTagsIgnoringDuplicates(tx *gorm.DB, names []string) error {
	rows := make([]entities.Tag, 0, len(names))
	for _, name := range names {
		rows = append(rows, entities.Tag{Name: name})
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to insert tags: %w", err)
	}
	return nil
}

func insertLinksIgnoringDuplicates(tx *gorm.DB, links []entities.ArticleTag) error {
	if len(links) == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "article_id"}, {Name: "tag_id"}},
		DoNothing: true,
	}).Create(&links).Error
	if err != nil {
		return fmt.Errorf("failed to link tags: %w", err)
	}
	return nil
}
