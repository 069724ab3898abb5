// Package fetcher downloads article pages with a per-item timeout and a
// bounded number of concurrent requests.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/workpool"
)

const (
	DefaultConcurrency  = 3
	DefaultTimeout      = 15 * time.Second
	DefaultUserAgent    = "readlater/1.0 (+offline reader)"
	DefaultMaxBodyBytes = 10 << 20
)

// Result is the terminal outcome of one fetch.
type Result struct {
	URL        string               `json:"url"`
	Status     entities.FetchStatus `json:"status"`
	HTML       string               `json:"-"`
	StatusCode int                  `json:"status_code,omitempty"`
	Error      string               `json:"error,omitempty"`
	Duration   time.Duration        `json:"duration"`
	Err        error                `json:"-"`
}

func (r Result) OK() bool {
	return r.Status == entities.FetchStatusSuccess
}

// Options configures a batch fetch. Zero values fall back to the defaults.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	// OnResult is called once per URL as soon as it settles, in completion
	// order. It may be called from several goroutines at once.
	OnResult func(index int, result Result)
}

type Config struct {
	UserAgent    string
	MaxBodyBytes int64
	HTTPClient   *http.Client
}

type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Deadlines come from the per-request context.
		httpClient = &http.Client{}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Client{
		httpClient:   httpClient,
		userAgent:    userAgent,
		maxBodyBytes: maxBody,
	}
}

// FetchOne downloads a single page. It never returns early without a
// terminal status: success, timeout (deadline hit) or error (anything else).
// A non-2xx response is an error but still carries the body.
func (c *Client) FetchOne(ctx context.Context, url string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	html, statusCode, err := c.get(reqCtx, url)
	res := Result{
		URL:        url,
		HTML:       html,
		StatusCode: statusCode,
		Duration:   time.Since(start),
	}

	switch {
	case err == nil:
		res.Status = entities.FetchStatusSuccess
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		res.Status = entities.FetchStatusTimeout
		res.Err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
		res.Error = res.Err.Error()
	default:
		res.Status = entities.FetchStatusError
		res.Err = err
		res.Error = err.Error()
	}
	return res
}

// FetchMany fetches every URL with at most opts.Concurrency requests in
// flight. The returned slice is indexed like urls.
func (c *Client) FetchMany(ctx context.Context, urls []string, opts Options) []Result {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return workpool.Map(ctx, urls, concurrency, func(ctx context.Context, url string) Result {
		return c.FetchOne(ctx, url, timeout)
	}, opts.OnResult)
}

func (c *Client) get(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return "", resp.StatusCode, &NetworkError{URL: url, Err: err}
	}
	if int64(len(raw)) > c.maxBodyBytes {
		return "", resp.StatusCode, &NetworkError{URL: url, Err: fmt.Errorf("%w: over %d bytes", ErrTooLarge, c.maxBodyBytes)}
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", resp.StatusCode, &NetworkError{URL: url, Err: err}
	}

	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", resp.StatusCode, &NetworkError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return string(body), resp.StatusCode, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}
	return string(body), resp.StatusCode, nil
}
