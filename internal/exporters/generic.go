package exporters

import (
	"context"

	"github.com/mrlokans/readlater/internal/entities"
)

// ArticleSource supplies the articles and tags an export is built from.
type ArticleSource interface {
	ListArticles(ctx context.Context, includeArchived bool) ([]entities.Article, error)
}

type TagSource interface {
	ListArticleTagsForArticles(ctx context.Context, articleIDs []string) (map[string][]entities.Tag, error)
}

type ExportResult struct {
	ArticlesProcessed int    `json:"articles_processed"`
	ArticlesFailed    int    `json:"articles_failed"`
	Destination       string `json:"destination,omitempty"`
}
