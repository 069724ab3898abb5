package importers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readlater/internal/assets"
	"github.com/mrlokans/readlater/internal/database"
	"github.com/mrlokans/readlater/internal/database/articles"
	assetsrepo "github.com/mrlokans/readlater/internal/database/assets"
	"github.com/mrlokans/readlater/internal/database/importjobs"
	"github.com/mrlokans/readlater/internal/database/settings"
	"github.com/mrlokans/readlater/internal/database/tags"
	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/extractor"
	"github.com/mrlokans/readlater/internal/fetcher"
	"github.com/mrlokans/readlater/internal/settingsstore"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// passthroughExtractor keeps the page as is so tests control the HTML that
// reaches the asset cache.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(rawHTML, pageURL string) extractor.Result {
	return extractor.Result{
		Title:       "Extracted title",
		ContentHTML: rawHTML,
		ContentText: "Hello",
		ParseStatus: entities.ParseStatusSuccess,
	}
}

type testEnv struct {
	pipeline *Pipeline
	articles *articles.Repository
	tags     *tags.Repository
	assets   *assetsrepo.Repository
	jobs     *importjobs.Repository
	settings *settingsstore.SettingsStore
}

func setupPipeline(t *testing.T, wrapJobs func(*importjobs.Repository) JobTracker) *testEnv {
	t.Helper()
	db, err := database.NewDatabaseWithOptions(
		filepath.Join(t.TempDir(), "pipeline.db"),
		database.Options{LogLevel: logger.Silent},
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		articles: articles.NewRepository(db.DB),
		tags:     tags.NewRepository(db.DB),
		assets:   assetsrepo.NewRepository(db.DB),
		jobs:     importjobs.NewRepository(db.DB),
	}
	env.settings = settingsstore.New(settings.NewRepository(db.DB), settingsstore.ExportSyncConfig{})

	var jobs JobTracker = env.jobs
	if wrapJobs != nil {
		jobs = wrapJobs(env.jobs)
	}

	env.pipeline = NewPipeline(Dependencies{
		Fetcher:     fetcher.NewClient(fetcher.Config{}),
		Extractor:   passthroughExtractor{},
		Articles:    env.articles,
		Tags:        env.tags,
		Assets:      assets.NewCache(env.assets, assets.Config{}, nil),
		Jobs:        jobs,
		Persistence: env.settings,
		Probe: func(ctx context.Context) settingsstore.PersistenceState {
			return settingsstore.PersistenceGranted
		},
	}, Options{FetchTimeout: 2 * time.Second})
	return env
}

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><p>Hello</p><img src="/img.png" srcset="/img@2x.png 2x"></body></html>`))
		case "/img.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBytes)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func exportFor(urls ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for _, url := range urls {
		b.WriteString(`<li><a href="` + url + `" tags="reading,Go">` + url + `</a></li>`)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func TestPipeline_EndToEnd(t *testing.T) {
	env := setupPipeline(t, nil)
	server := newSiteServer(t)
	ctx := context.Background()

	export := exportFor(server.URL+"/article", server.URL+"/gone")
	job, items, err := env.pipeline.Prepare(ctx, "ril_export.html", strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, entities.ImportStatusPending, job.Status)
	assert.Equal(t, 2, job.TotalCount)

	var mu sync.Mutex
	var progressCalls []int
	result, err := env.pipeline.Run(ctx, job.ID, items, func(processed, total int, item Bookmark, status entities.FetchStatus) {
		mu.Lock()
		progressCalls = append(progressCalls, processed)
		mu.Unlock()
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.AssetsCached)
	assert.ElementsMatch(t, []int{1, 2}, progressCalls)

	list, err := env.articles.ListArticles(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	article := list[0]
	assert.Equal(t, server.URL+"/article", article.URL)
	assert.Equal(t, "Extracted title", article.Title)
	assert.Contains(t, article.ContentHTML, assets.URLPrefix)
	assert.NotContains(t, article.ContentHTML, "srcset")

	stored, err := env.assets.ListAssetsForArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Contains(t, article.ContentHTML, assets.BuildAssetURL(stored[0].ID))
	assert.Equal(t, "image/png", stored[0].ContentType)

	articleTags, err := env.tags.GetTagsForArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, articleTags, 2)
	assert.Equal(t, "Go", articleTags[0].Name)
	assert.Equal(t, "reading", articleTags[1].Name)

	finished, err := env.jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, finished.Status)
	assert.Equal(t, 1, finished.CompletedCount)
	assert.Equal(t, 1, finished.FailedCount)
	assert.NotNil(t, finished.CompletedAt)

	failures, err := env.jobs.ListFailures(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, server.URL+"/gone", failures[0].URL)
	assert.Equal(t, entities.FetchStatusError, failures[0].FetchStatus)
	assert.Equal(t, "HTTP 404", failures[0].Error)

	assert.Equal(t, settingsstore.PersistenceGranted, env.settings.GetStoragePersistence(ctx))
}

func TestPipeline_AllFailedLeavesPersistenceUnknown(t *testing.T) {
	env := setupPipeline(t, nil)
	server := newSiteServer(t)
	ctx := context.Background()

	job, items, err := env.pipeline.Prepare(ctx, "ril_export.html", strings.NewReader(exportFor(server.URL+"/gone")))
	require.NoError(t, err)

	result, err := env.pipeline.Run(ctx, job.ID, items, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	finished, err := env.jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, finished.Status)
	assert.Equal(t, settingsstore.PersistenceUnknown, env.settings.GetStoragePersistence(ctx))
}

func TestPipeline_Prepare_RejectsInvalidExport(t *testing.T) {
	env := setupPipeline(t, nil)
	ctx := context.Background()

	_, _, err := env.pipeline.Prepare(ctx, "bookmarks.html", strings.NewReader(exportFor("https://example.com")))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	_, _, err = env.pipeline.Prepare(ctx, "ril_export.html", strings.NewReader("<html><body></body></html>"))
	require.True(t, errors.As(err, &verr))

	jobs, err := env.jobs.ListJobs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

// failingTracker breaks counter updates to exercise the fatal path.
type failingTracker struct {
	*importjobs.Repository
}

func (f failingTracker) RecordResult(ctx context.Context, id string, success bool) error {
	return errors.New("disk I/O error")
}

func (f failingTracker) RecordFailure(ctx context.Context, id string, failure importjobs.Failure) error {
	return errors.New("disk I/O error")
}

func TestPipeline_TrackerFailureFailsJob(t *testing.T) {
	env := setupPipeline(t, func(repo *importjobs.Repository) JobTracker {
		return failingTracker{Repository: repo}
	})
	server := newSiteServer(t)
	ctx := context.Background()

	job, items, err := env.pipeline.Prepare(ctx, "ril_export.html", strings.NewReader(exportFor(server.URL+"/article")))
	require.NoError(t, err)

	_, err = env.pipeline.Run(ctx, job.ID, items, nil)
	require.Error(t, err)

	finished, err := env.jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusFailed, finished.Status)
}

func TestPipeline_RunRequiresPendingJob(t *testing.T) {
	env := setupPipeline(t, nil)
	ctx := context.Background()

	job, err := env.jobs.CreateJob(ctx, 0, "")
	require.NoError(t, err)
	require.NoError(t, env.jobs.StartJob(ctx, job.ID))

	_, err = env.pipeline.Run(ctx, job.ID, nil, nil)
	assert.ErrorIs(t, err, importjobs.ErrInvalidTransition)
}

type failingTags struct{}

func (failingTags) AddTagsToArticle(ctx context.Context, articleID string, names []string) ([]entities.Tag, error) {
	return nil, errors.New("database is locked")
}

type failingRewrite struct {
	*articles.Repository
}

func (f failingRewrite) UpdateArticle(ctx context.Context, id string, patch articles.ArticlePatch) (*entities.Article, error) {
	return nil, errors.New("database is locked")
}

func TestPipeline_TagStoreFailureFailsItem(t *testing.T) {
	env := setupPipeline(t, nil)
	env.pipeline.deps.Tags = failingTags{}
	server := newSiteServer(t)
	ctx := context.Background()

	job, items, err := env.pipeline.Prepare(ctx, "ril_export.html", strings.NewReader(exportFor(server.URL+"/article")))
	require.NoError(t, err)

	result, err := env.pipeline.Run(ctx, job.ID, items, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	finished, err := env.jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, finished.Status)
	assert.Equal(t, 0, finished.CompletedCount)
	assert.Equal(t, 1, finished.FailedCount)

	failures, err := env.jobs.ListFailures(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, entities.FetchStatusSuccess, failures[0].FetchStatus)
	assert.Contains(t, failures[0].Error, "attach tags")
}

func TestPipeline_RewriteFailureFailsItem(t *testing.T) {
	env := setupPipeline(t, nil)
	env.pipeline.deps.Articles = failingRewrite{Repository: env.articles}
	server := newSiteServer(t)
	ctx := context.Background()

	job, items, err := env.pipeline.Prepare(ctx, "ril_export.html", strings.NewReader(exportFor(server.URL+"/article")))
	require.NoError(t, err)

	result, err := env.pipeline.Run(ctx, job.ID, items, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	finished, err := env.jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, finished.FailedCount)

	failures, err := env.jobs.ListFailures(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Error, "rewrite cached images")
}
