// Package assets downloads the images referenced by an article, stores them
// as blobs and points the article HTML at the stored copies.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/fetcher"
	"github.com/mrlokans/readlater/internal/workpool"
)

const (
	DefaultConcurrency   = 4
	DefaultTimeout       = 30 * time.Second
	DefaultMaxAssetBytes = 20 << 20
	FallbackContentType  = "application/octet-stream"
)

// Store persists downloaded assets.
type Store interface {
	CreateAsset(ctx context.Context, articleID, url, contentType string, blob []byte) (*entities.Asset, error)
}

type CacheResult struct {
	HTML        string
	CachedCount int
	FailedCount int
}

type Config struct {
	Timeout       time.Duration
	MaxAssetBytes int64
	UserAgent     string
	HTTPClient    *http.Client
}

// Cache handles local caching of article images.
type Cache struct {
	store      Store
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	userAgent  string
	logger     *slog.Logger
}

func NewCache(store Store, cfg Config, logger *slog.Logger) *Cache {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBytes := cfg.MaxAssetBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAssetBytes
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:      store,
		httpClient: httpClient,
		timeout:    timeout,
		maxBytes:   maxBytes,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// CacheArticleAssets downloads every distinct image in html, stores it for
// articleID and rewrites the cached images to local references. Images that
// fail to download are left untouched. When nothing was cached the input is
// returned as is.
func (c *Cache) CacheArticleAssets(ctx context.Context, articleID, baseURL, html string, concurrency int) (CacheResult, error) {
	if strings.TrimSpace(html) == "" {
		return CacheResult{HTML: html}, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CacheResult{}, fmt.Errorf("parse article html: %w", err)
	}

	base, _ := url.Parse(baseURL)

	var unique []string
	seen := make(map[string]struct{})
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		resolved, ok := resolveImageURL(img.AttrOr("src", ""), base)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		unique = append(unique, resolved)
	})
	if len(unique) == 0 {
		return CacheResult{HTML: html}, nil
	}

	var mu sync.Mutex
	assetIDs := make(map[string]string, len(unique))
	result := CacheResult{}

	workpool.Run(ctx, len(unique), concurrency, func(ctx context.Context, i int) {
		src := unique[i]
		asset, err := c.fetchAndStore(ctx, articleID, src)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.FailedCount++
			c.logger.Warn("asset_cache_failed",
				slog.String("article_id", articleID),
				slog.String("url", src),
				slog.String("error", err.Error()))
			return
		}
		result.CachedCount++
		assetIDs[src] = asset.ID
	})

	if result.CachedCount == 0 {
		result.HTML = html
		return result, nil
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		resolved, ok := resolveImageURL(img.AttrOr("src", ""), base)
		if !ok {
			return
		}
		id, cached := assetIDs[resolved]
		if !cached {
			return
		}
		img.SetAttr("src", BuildAssetURL(id))
		img.RemoveAttr("srcset")
	})

	rewritten, err := doc.Find("body").Html()
	if err != nil {
		return CacheResult{}, fmt.Errorf("serialize article html: %w", err)
	}
	result.HTML = rewritten
	return result, nil
}

// resolveImageURL returns the absolute URL of an image source. Empty,
// data: and unparseable sources are skipped, as are sources already stored
// locally.
func resolveImageURL(src string, base *url.URL) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, URLPrefix) {
		return "", false
	}

	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	return ref.String(), true
}

func (c *Cache) fetchAndStore(ctx context.Context, articleID, src string) (*entities.Asset, error) {
	blob, contentType, err := c.download(ctx, src)
	if err != nil {
		return nil, err
	}
	asset, err := c.store.CreateAsset(ctx, articleID, src, contentType, blob)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (c *Cache) download(ctx context.Context, src string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", &fetcher.NetworkError{URL: src, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &fetcher.NetworkError{URL: src, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &fetcher.NetworkError{URL: src, StatusCode: resp.StatusCode}
	}

	blob, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, "", &fetcher.NetworkError{URL: src, Err: err}
	}
	if int64(len(blob)) > c.maxBytes {
		return nil, "", &fetcher.NetworkError{URL: src, Err: fmt.Errorf("%w: over %d bytes", fetcher.ErrTooLarge, c.maxBytes)}
	}
	return blob, contentTypeOf(resp.Header.Get("Content-Type"), blob), nil
}

// contentTypeOf prefers the response header, then the type sniffed from the
// bytes, then a generic binary type.
func contentTypeOf(header string, blob []byte) string {
	if header = strings.TrimSpace(header); header != "" {
		return header
	}
	if len(blob) > 0 {
		if sniffed := http.DetectContentType(blob); sniffed != "" {
			return sniffed
		}
	}
	return FallbackContentType
}
