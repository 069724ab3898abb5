package exporters

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readlater/internal/database"
	"github.com/mrlokans/readlater/internal/database/articles"
	"github.com/mrlokans/readlater/internal/database/tags"
	"github.com/mrlokans/readlater/internal/entities"
)

// --- GenerateMarkdown Tests ---

func TestGenerateMarkdown(t *testing.T) {
	savedAt := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

	t.Run("writes frontmatter and trimmed text", func(t *testing.T) {
		article := entities.Article{
			ID:          "abc",
			URL:         "https://example.com/post",
			Title:       `Colons: "quotes" and # hashes`,
			ContentText: "\n\n  First paragraph.\n\nSecond paragraph.  \n",
			SavedAt:     savedAt,
		}
		tagList := []entities.Tag{{Name: "zeta"}, {Name: "Alpha"}, {Name: "beta"}}

		markdown, err := GenerateMarkdown(article, tagList)
		require.NoError(t, err)

		var meta Frontmatter
		body, err := frontmatter.Parse(strings.NewReader(markdown), &meta)
		require.NoError(t, err)

		assert.Equal(t, article.Title, meta.Title)
		assert.Equal(t, article.URL, meta.URL)
		assert.Equal(t, []string{"Alpha", "beta", "zeta"}, meta.Tags)
		assert.Equal(t, "2024-06-15T14:30:00Z", meta.SavedAt)
		assert.Equal(t, "First paragraph.\n\nSecond paragraph.", strings.TrimSpace(string(body)))
	})

	t.Run("untagged article still has a tags sequence", func(t *testing.T) {
		markdown, err := GenerateMarkdown(entities.Article{ID: "x", Title: "T", SavedAt: savedAt}, nil)
		require.NoError(t, err)

		assert.Contains(t, markdown, "tags: []")
		assert.True(t, strings.HasSuffix(markdown, "---\n\n"))
	})
}

func TestMarkdownFilename(t *testing.T) {
	name := MarkdownFilename(entities.Article{ID: "1234", Title: "What is Go? [part 1]"})
	assert.Equal(t, "What is Go (part 1)-1234.md", name)

	name = MarkdownFilename(entities.Article{ID: "5678"})
	assert.Equal(t, "Untitled-5678.md", name)
}

// --- MarkdownExporter Tests ---

func setupExporter(t *testing.T) (*MarkdownExporter, *articles.Repository, *tags.Repository) {
	t.Helper()
	db, err := database.NewDatabaseWithOptions(
		filepath.Join(t.TempDir(), "export.db"),
		database.Options{LogLevel: logger.Silent},
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	articlesRepo := articles.NewRepository(db.DB)
	tagsRepo := tags.NewRepository(db.DB)
	return NewMarkdownExporter(articlesRepo, tagsRepo), articlesRepo, tagsRepo
}

func seedArticles(t *testing.T, articlesRepo *articles.Repository, tagsRepo *tags.Repository) []*entities.Article {
	t.Helper()
	ctx := context.Background()

	older, err := articlesRepo.CreateArticle(ctx, articles.NewArticle{
		URL:         "https://example.com/older",
		Title:       "Older",
		ContentText: "older text",
		SavedAt:     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	newer, err := articlesRepo.CreateArticle(ctx, articles.NewArticle{
		URL:         "https://example.com/newer",
		Title:       "Newer",
		ContentText: "newer text",
		SavedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = articlesRepo.SetArchived(ctx, newer.ID, true)
	require.NoError(t, err)

	_, err = tagsRepo.AddTagsToArticle(ctx, older.ID, []string{"go", "db"})
	require.NoError(t, err)

	return []*entities.Article{older, newer}
}

func TestMarkdownExporter_ExportAll(t *testing.T) {
	exporter, articlesRepo, tagsRepo := setupExporter(t)
	seeded := seedArticles(t, articlesRepo, tagsRepo)

	docs, result, err := exporter.ExportAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.ArticlesProcessed)
	assert.Equal(t, 0, result.ArticlesFailed)
	require.Len(t, docs, 2)

	// Archived articles are exported too, newest first.
	assert.Equal(t, seeded[1].ID, docs[0].ArticleID)
	assert.Equal(t, "Newer-"+seeded[1].ID+".md", docs[0].Filename)

	var meta Frontmatter
	_, err = frontmatter.Parse(strings.NewReader(docs[1].Content), &meta)
	require.NoError(t, err)
	assert.Equal(t, []string{"db", "go"}, meta.Tags)
}

func TestMarkdownExporter_WriteZip(t *testing.T) {
	exporter, articlesRepo, tagsRepo := setupExporter(t)
	seeded := seedArticles(t, articlesRepo, tagsRepo)

	var buf bytes.Buffer
	result, err := exporter.WriteZip(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ArticlesProcessed)

	archive, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, archive.File, 2)

	names := []string{archive.File[0].Name, archive.File[1].Name}
	assert.ElementsMatch(t, []string{
		"Older-" + seeded[0].ID + ".md",
		"Newer-" + seeded[1].ID + ".md",
	}, names)

	f, err := archive.File[1].Open()
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(content), "older text")
}

func TestMarkdownExporter_WriteZip_Empty(t *testing.T) {
	exporter, _, _ := setupExporter(t)

	var buf bytes.Buffer
	result, err := exporter.WriteZip(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ArticlesProcessed)

	archive, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, archive.File)
}

func TestMarkdownExporter_ExportToDir(t *testing.T) {
	exporter, articlesRepo, tagsRepo := setupExporter(t)
	seeded := seedArticles(t, articlesRepo, tagsRepo)

	dir := filepath.Join(t.TempDir(), "notes", "articles")
	result, err := exporter.ExportToDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ArticlesProcessed)
	assert.Equal(t, dir, result.Destination)

	content, err := os.ReadFile(filepath.Join(dir, "Older-"+seeded[0].ID+".md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "url: https://example.com/older")

	// A second run overwrites instead of duplicating.
	_, err = exporter.ExportToDir(context.Background(), dir)
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMarkdownExporter_ExportToDir_RequiresDir(t *testing.T) {
	exporter, _, _ := setupExporter(t)

	_, err := exporter.ExportToDir(context.Background(), "")
	assert.Error(t, err)
}
