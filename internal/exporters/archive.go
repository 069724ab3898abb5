package exporters

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// MarkdownExporter renders stored articles to Markdown notes.
type MarkdownExporter struct {
	articles ArticleSource
	tags     TagSource
}

func NewMarkdownExporter(articles ArticleSource, tags TagSource) *MarkdownExporter {
	return &MarkdownExporter{articles: articles, tags: tags}
}

// ExportAll renders every article, archived ones included, newest first.
// Articles that fail to render are logged and counted, not returned.
func (e *MarkdownExporter) ExportAll(ctx context.Context) ([]Document, ExportResult, error) {
	list, err := e.articles.ListArticles(ctx, true)
	if err != nil {
		return nil, ExportResult{}, fmt.Errorf("failed to list articles: %w", err)
	}

	ids := make([]string, len(list))
	for i, article := range list {
		ids[i] = article.ID
	}
	tagsByArticle, err := e.tags.ListArticleTagsForArticles(ctx, ids)
	if err != nil {
		return nil, ExportResult{}, fmt.Errorf("failed to load tags: %w", err)
	}

	result := ExportResult{}
	docs := make([]Document, 0, len(list))
	for _, article := range list {
		content, err := GenerateMarkdown(article, tagsByArticle[article.ID])
		if err != nil {
			log.Printf("Failed to render article %s: %v", article.ID, err)
			result.ArticlesFailed++
			continue
		}
		docs = append(docs, Document{
			ArticleID: article.ID,
			Filename:  MarkdownFilename(article),
			Content:   content,
		})
		result.ArticlesProcessed++
	}
	return docs, result, nil
}

// WriteZip streams all notes into a ZIP archive written to w.
func (e *MarkdownExporter) WriteZip(ctx context.Context, w io.Writer) (ExportResult, error) {
	docs, result, err := e.ExportAll(ctx)
	if err != nil {
		return result, err
	}

	archive := zip.NewWriter(w)
	modified := time.Now()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			archive.Close()
			return result, err
		}
		entry, err := archive.CreateHeader(&zip.FileHeader{
			Name:     doc.Filename,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			archive.Close()
			return result, fmt.Errorf("failed to add %s to archive: %w", doc.Filename, err)
		}
		if _, err := io.WriteString(entry, doc.Content); err != nil {
			archive.Close()
			return result, fmt.Errorf("failed to write %s: %w", doc.Filename, err)
		}
	}
	if err := archive.Close(); err != nil {
		return result, fmt.Errorf("failed to finish archive: %w", err)
	}
	return result, nil
}

// ExportToDir writes one file per article into dir, creating it if needed.
// Existing notes for the same article are overwritten.
func (e *MarkdownExporter) ExportToDir(ctx context.Context, dir string) (ExportResult, error) {
	if dir == "" {
		return ExportResult{}, fmt.Errorf("export directory is not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	docs, result, err := e.ExportAll(ctx)
	if err != nil {
		return result, err
	}
	result.Destination = dir

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		path := filepath.Join(dir, doc.Filename)
		if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
			log.Printf("Failed to write %s: %v", path, err)
			result.ArticlesProcessed--
			result.ArticlesFailed++
		}
	}

	log.Printf("Markdown export completed: %d articles written to %s, %d failed",
		result.ArticlesProcessed, dir, result.ArticlesFailed)
	return result, nil
}
