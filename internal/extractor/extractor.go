// Package extractor turns a raw HTML page into readable article content.
//
// Readability does the heavy lifting. When it fails or finds too little, the
// whole page body is kept as a partial result so the user still has something
// to read offline.
package extractor

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/mrlokans/readlater/internal/entities"
)

// MinSuccessLength is the amount of readable text, in characters, needed for
// a parse to count as a full success.
const MinSuccessLength = 200

var whitespaceRe = regexp.MustCompile(`\s+`)

type Result struct {
	Title       string
	ContentHTML string
	ContentText string
	ParseStatus entities.ParseStatus
}

type Extractor struct {
	policy *bluemonday.Policy
}

func New() *Extractor {
	return &Extractor{policy: bluemonday.UGCPolicy()}
}

// Extract never fails: unusable input is reported as ParseStatusFailed.
func (e *Extractor) Extract(rawHTML, pageURL string) Result {
	if strings.TrimSpace(rawHTML) == "" {
		return Result{ParseStatus: entities.ParseStatusFailed}
	}

	fallbackTitle, bodyHTML, bodyText := e.pageFallback(rawHTML)

	var readableTitle, readableHTML, readableText string
	if parsedURL, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL); err == nil {
			readableTitle = normalizeText(article.Title)
			readableHTML = e.policy.Sanitize(article.Content)
			readableText = textOf(readableHTML)
		}
	}

	title := readableTitle
	if title == "" {
		title = fallbackTitle
	}

	switch {
	case utf8.RuneCountInString(readableText) >= MinSuccessLength:
		return Result{Title: title, ContentHTML: readableHTML, ContentText: readableText, ParseStatus: entities.ParseStatusSuccess}
	case readableText != "":
		return Result{Title: title, ContentHTML: readableHTML, ContentText: readableText, ParseStatus: entities.ParseStatusPartial}
	case bodyText != "":
		return Result{Title: title, ContentHTML: bodyHTML, ContentText: bodyText, ParseStatus: entities.ParseStatusPartial}
	default:
		return Result{Title: title, ParseStatus: entities.ParseStatusFailed}
	}
}

func (e *Extractor) pageFallback(rawHTML string) (title, bodyHTML, bodyText string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", "", ""
	}
	title = normalizeText(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, template, iframe").Remove()
	body := doc.Find("body")
	html, err := body.Html()
	if err != nil {
		return title, "", ""
	}
	bodyHTML = strings.TrimSpace(e.policy.Sanitize(html))
	return title, bodyHTML, textOf(bodyHTML)
}

func textOf(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(spaceBlocks(fragment)))
	if err != nil {
		return ""
	}
	return normalizeText(doc.Text())
}

var blockBoundaryRe = regexp.MustCompile(`(?i)</?(p|div|br|li|td|tr|h[1-6]|blockquote|pre|section|article)[^>]*>`)

// spaceBlocks keeps words from adjacent block elements apart once tags are
// stripped.
func spaceBlocks(fragment string) string {
	return blockBoundaryRe.ReplaceAllStringFunc(fragment, func(tag string) string {
		return " " + tag + " "
	})
}

func normalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
