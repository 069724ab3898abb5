package exporters

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/utils"
)

// Frontmatter is the YAML header written at the top of every exported note.
type Frontmatter struct {
	Title   string   `yaml:"title"`
	URL     string   `yaml:"url"`
	Tags    []string `yaml:"tags"`
	SavedAt string   `yaml:"saved_at"`
}

// Document is one rendered Markdown file.
type Document struct {
	ArticleID string
	Filename  string
	Content   string
}

// MarkdownFilename returns the export file name for an article. The id keeps
// names unique when titles collide.
func MarkdownFilename(article entities.Article) string {
	return utils.SanitizeFilename(article.Title) + "-" + article.ID + ".md"
}

// GenerateMarkdown renders an article as YAML frontmatter followed by its
// plain text content.
func GenerateMarkdown(article entities.Article, tags []entities.Tag) (string, error) {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	sort.Strings(names)

	header, err := yaml.Marshal(Frontmatter{
		Title:   article.Title,
		URL:     article.URL,
		Tags:    names,
		SavedAt: article.SavedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter for article %s: %w", article.ID, err)
	}

	var builder bytes.Buffer
	builder.WriteString("---\n")
	builder.Write(header)
	builder.WriteString("---\n\n")
	if text := strings.TrimSpace(article.ContentText); text != "" {
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
