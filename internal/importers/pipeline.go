package importers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrlokans/readlater/internal/assets"
	"github.com/mrlokans/readlater/internal/database/articles"
	"github.com/mrlokans/readlater/internal/database/importjobs"
	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/extractor"
	"github.com/mrlokans/readlater/internal/fetcher"
	"github.com/mrlokans/readlater/internal/settingsstore"
)

// PageFetcher downloads pages with bounded concurrency.
type PageFetcher interface {
	FetchMany(ctx context.Context, urls []string, opts fetcher.Options) []fetcher.Result
}

// ContentExtractor turns a page into readable content. It must not fail;
// unusable pages are reported through the parse status.
type ContentExtractor interface {
	Extract(rawHTML, pageURL string) extractor.Result
}

type ArticleStore interface {
	CreateArticle(ctx context.Context, in articles.NewArticle) (*entities.Article, error)
	UpdateArticle(ctx context.Context, id string, patch articles.ArticlePatch) (*entities.Article, error)
}

type TagStore interface {
	AddTagsToArticle(ctx context.Context, articleID string, names []string) ([]entities.Tag, error)
}

type AssetCacher interface {
	CacheArticleAssets(ctx context.Context, articleID, baseURL, html string, concurrency int) (assets.CacheResult, error)
}

// JobTracker persists import job state and counters.
type JobTracker interface {
	CreateJob(ctx context.Context, total int, sourceFilename string) (*entities.ImportJob, error)
	StartJob(ctx context.Context, id string) error
	RecordResult(ctx context.Context, id string, success bool) error
	RecordFailure(ctx context.Context, id string, failure importjobs.Failure) error
	CompleteJob(ctx context.Context, id string, failed bool) error
}

// PersistenceRecorder resolves the storage persistence state after the first
// successful import.
type PersistenceRecorder interface {
	EnsureStoragePersistence(ctx context.Context, probe settingsstore.PersistenceProbe) (settingsstore.PersistenceState, error)
}

type Options struct {
	FetchConcurrency int
	FetchTimeout     time.Duration
	AssetConcurrency int
}

type Dependencies struct {
	Fetcher     PageFetcher
	Extractor   ContentExtractor
	Articles    ArticleStore
	Tags        TagStore
	Assets      AssetCacher
	Jobs        JobTracker
	Persistence PersistenceRecorder
	Probe       settingsstore.PersistenceProbe
	Logger      *slog.Logger
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	JobID        string   `json:"job_id"`
	Total        int      `json:"total"`
	Succeeded    int      `json:"succeeded"`
	Failed       int      `json:"failed"`
	AssetsCached int      `json:"assets_cached"`
	AssetsFailed int      `json:"assets_failed"`
	ArticleIDs   []string `json:"article_ids"`
}

// ProgressFunc is called after each item settles, in completion order.
type ProgressFunc func(processed, total int, item Bookmark, status entities.FetchStatus)

// Pipeline handles the import workflow:
// fetch → extract → save article → cache images → tag → count.
//
// Each item is independent: a failed fetch or save is recorded against the
// job and the run carries on. Only job bookkeeping failures abort a run.
type Pipeline struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
}

func NewPipeline(deps Dependencies, opts Options) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = fetcher.DefaultConcurrency
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = fetcher.DefaultTimeout
	}
	if opts.AssetConcurrency <= 0 {
		opts.AssetConcurrency = assets.DefaultConcurrency
	}
	return &Pipeline{deps: deps, opts: opts, logger: logger}
}

// Prepare parses and validates an uploaded export and records a pending job
// for it. Nothing is fetched yet.
func (p *Pipeline) Prepare(ctx context.Context, filename string, r io.Reader) (*entities.ImportJob, []Bookmark, error) {
	items, err := ParseBookmarks(r)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidateExport(filename, items); err != nil {
		return nil, nil, err
	}
	job, err := p.deps.Jobs.CreateJob(ctx, len(items), filename)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("import_job_created",
		slog.String("job_id", job.ID),
		slog.Int("items", len(items)))
	return job, items, nil
}

// Run imports items under the given pending job and finalizes it.
func (p *Pipeline) Run(ctx context.Context, jobID string, items []Bookmark, progress ProgressFunc) (RunResult, error) {
	result := RunResult{JobID: jobID, Total: len(items)}

	if err := p.deps.Jobs.StartJob(ctx, jobID); err != nil {
		p.logger.Error("import_job_start_failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		return result, fmt.Errorf("start import job %s: %w", jobID, err)
	}

	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}

	var (
		mu        sync.Mutex
		fatalErr  error
		fatal     atomic.Bool
		processed int
	)

	p.deps.Fetcher.FetchMany(ctx, urls, fetcher.Options{
		Concurrency: p.opts.FetchConcurrency,
		Timeout:     p.opts.FetchTimeout,
		OnResult: func(index int, res fetcher.Result) {
			if fatal.Load() {
				return
			}
			item := items[index]
			outcome := p.importItem(ctx, jobID, item, res)

			var trackErr error
			if outcome.failure != nil {
				trackErr = p.deps.Jobs.RecordFailure(ctx, jobID, *outcome.failure)
			} else {
				trackErr = p.deps.Jobs.RecordResult(ctx, jobID, true)
			}

			mu.Lock()
			defer mu.Unlock()
			if trackErr != nil {
				if fatalErr == nil {
					fatalErr = trackErr
				}
				fatal.Store(true)
				p.logger.Error("import_job_update_failed",
					slog.String("job_id", jobID),
					slog.String("url", item.URL),
					slog.String("error", trackErr.Error()))
				return
			}

			processed++
			if outcome.failure != nil {
				result.Failed++
			} else {
				result.Succeeded++
				result.ArticleIDs = append(result.ArticleIDs, outcome.articleID)
			}
			result.AssetsCached += outcome.assetsCached
			result.AssetsFailed += outcome.assetsFailed
			if progress != nil {
				progress(processed, len(items), item, res.Status)
			}
		},
	})

	if err := p.deps.Jobs.CompleteJob(ctx, jobID, fatalErr != nil); err != nil {
		p.logger.Error("import_job_complete_failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		return result, fmt.Errorf("complete import job %s: %w", jobID, err)
	}
	if fatalErr != nil {
		return result, fmt.Errorf("import job %s aborted: %w", jobID, fatalErr)
	}

	p.logger.Info("import_job_completed",
		slog.String("job_id", jobID),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("assets_cached", result.AssetsCached))

	if result.Succeeded > 0 && p.deps.Persistence != nil {
		if _, err := p.deps.Persistence.EnsureStoragePersistence(ctx, p.deps.Probe); err != nil {
			p.logger.Warn("storage_persistence_check_failed", slog.String("error", err.Error()))
		}
	}

	return result, nil
}

type itemOutcome struct {
	articleID    string
	failure      *importjobs.Failure
	assetsCached int
	assetsFailed int
}

// failed turns a storage error after the page was fetched into an item
// failure. The saved article is kept.
func (o itemOutcome) failed(url string, err error) itemOutcome {
	o.failure = &importjobs.Failure{
		URL:         url,
		FetchStatus: entities.FetchStatusSuccess,
		Error:       err.Error(),
	}
	return o
}

func (p *Pipeline) importItem(ctx context.Context, jobID string, item Bookmark, res fetcher.Result) itemOutcome {
	if !res.OK() {
		p.logger.Warn("import_fetch_failed",
			slog.String("job_id", jobID),
			slog.String("url", item.URL),
			slog.String("status", string(res.Status)),
			slog.String("error", res.Error),
			slog.Duration("duration", res.Duration))
		return itemOutcome{failure: &importjobs.Failure{
			URL:         item.URL,
			FetchStatus: res.Status,
			Error:       res.Error,
		}}
	}

	extracted := p.deps.Extractor.Extract(res.HTML, item.URL)

	title := item.Title
	if (title == "" || title == item.URL) && extracted.Title != "" {
		title = extracted.Title
	}

	article, err := p.deps.Articles.CreateArticle(ctx, articles.NewArticle{
		URL:         item.URL,
		Title:       title,
		ContentHTML: extracted.ContentHTML,
		ContentText: extracted.ContentText,
		ParseStatus: extracted.ParseStatus,
		SavedAt:     item.SavedAt,
	})
	if err != nil {
		p.logger.Error("import_article_store_failed",
			slog.String("job_id", jobID),
			slog.String("url", item.URL),
			slog.String("error", err.Error()))
		return itemOutcome{failure: &importjobs.Failure{
			URL:         item.URL,
			FetchStatus: entities.FetchStatusSuccess,
			Error:       err.Error(),
		}}
	}

	outcome := itemOutcome{articleID: article.ID}

	if p.deps.Assets != nil && extracted.ContentHTML != "" {
		cached, err := p.deps.Assets.CacheArticleAssets(ctx, article.ID, item.URL, extracted.ContentHTML, p.opts.AssetConcurrency)
		if err != nil {
			p.logger.Warn("import_asset_cache_failed",
				slog.String("job_id", jobID),
				slog.String("article_id", article.ID),
				slog.String("error", err.Error()))
		} else {
			outcome.assetsCached = cached.CachedCount
			outcome.assetsFailed = cached.FailedCount
			if cached.HTML != extracted.ContentHTML {
				html := cached.HTML
				if _, err := p.deps.Articles.UpdateArticle(ctx, article.ID, articles.ArticlePatch{ContentHTML: &html}); err != nil {
					p.logger.Error("import_article_rewrite_failed",
						slog.String("job_id", jobID),
						slog.String("article_id", article.ID),
						slog.String("error", err.Error()))
					return outcome.failed(item.URL, fmt.Errorf("rewrite cached images: %w", err))
				}
			}
		}
	}

	if len(item.Tags) > 0 {
		if _, err := p.deps.Tags.AddTagsToArticle(ctx, article.ID, item.Tags); err != nil {
			p.logger.Error("import_tagging_failed",
				slog.String("job_id", jobID),
				slog.String("article_id", article.ID),
				slog.Any("tags", item.Tags),
				slog.String("error", err.Error()))
			return outcome.failed(item.URL, fmt.Errorf("attach tags: %w", err))
		}
	}

	return outcome
}
