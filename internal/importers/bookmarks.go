package importers

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ExportFilename is the name of the file a bookmark service hands out.
const ExportFilename = "ril_export.html"

// Bookmark is one saved link from an export file.
type Bookmark struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
	// Zero when the export carries no time_added attribute.
	SavedAt time.Time `json:"saved_at,omitempty"`
}

// ValidationError rejects an export before any work is scheduled.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ParseBookmarks extracts every anchor with a non-empty href. The anchor text
// becomes the title (the URL when blank) and the comma-separated tags
// attribute becomes the tag list.
func ParseBookmarks(r io.Reader) ([]Bookmark, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse bookmark export: %w", err)
	}

	var items []Bookmark
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		url := strings.TrimSpace(link.AttrOr("href", ""))
		if url == "" {
			return
		}

		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = url
		}

		items = append(items, Bookmark{
			URL:     url,
			Title:   title,
			Tags:    splitTags(link.AttrOr("tags", "")),
			SavedAt: parseTimeAdded(link.AttrOr("time_added", "")),
		})
	})
	return items, nil
}

// ValidateExport checks the uploaded file name and the parsed result.
func ValidateExport(filename string, items []Bookmark) error {
	base := filepath.Base(strings.TrimSpace(filename))
	if !strings.HasSuffix(strings.ToLower(base), ".html") {
		return &ValidationError{Message: "Please choose an .html export file."}
	}
	if base != ExportFilename {
		return &ValidationError{Message: "Please select the original " + ExportFilename + " export file."}
	}
	if len(items) == 0 {
		return &ValidationError{Message: "We could not find any saved links in this file. Make sure it is a valid export."}
	}
	return nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func parseTimeAdded(raw string) time.Time {
	seconds, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}
