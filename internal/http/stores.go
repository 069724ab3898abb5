package http

import (
	"context"
	"io"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readlater/internal/database/articles"
	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/exporters"
	"github.com/mrlokans/readlater/internal/importers"
	"github.com/mrlokans/readlater/internal/settingsstore"
)

// This file collects the store interfaces HTTP controllers depend on. Each
// is satisfied by a repository from internal/database or a service package.

// ArticleStore provides access to saved articles.
type ArticleStore interface {
	ListArticles(ctx context.Context, includeArchived bool) ([]entities.Article, error)
	GetArticleByID(ctx context.Context, id string) (*entities.Article, error)
	UpdateArticle(ctx context.Context, id string, patch articles.ArticlePatch) (*entities.Article, error)
}

// TagStore defines database operations for tag management.
type TagStore interface {
	ListTags(ctx context.Context) ([]entities.Tag, error)
	GetOrCreateTag(ctx context.Context, name string) (*entities.Tag, error)
	GetTagByID(ctx context.Context, id string) (*entities.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	DeleteOrphanTags(ctx context.Context) (int64, error)
	GetTagsForArticle(ctx context.Context, articleID string) ([]entities.Tag, error)
	ListArticleTagsForArticles(ctx context.Context, articleIDs []string) (map[string][]entities.Tag, error)
	SetTagsForArticle(ctx context.Context, articleID string, tagIDs []string) error
	AddTagsToArticle(ctx context.Context, articleID string, names []string) ([]entities.Tag, error)
}

// AssetStore serves cached article images.
type AssetStore interface {
	GetAssetByID(ctx context.Context, id string) (*entities.Asset, error)
}

// ImportJobStore exposes import job progress.
type ImportJobStore interface {
	GetJob(ctx context.Context, id string) (*entities.ImportJob, error)
	ListJobs(ctx context.Context, limit int) ([]entities.ImportJob, error)
	ListFailures(ctx context.Context, id string) ([]entities.ImportJobFailure, error)
	AbandonJob(ctx context.Context, id string) error
}

// ImportPreparer validates an upload and records a pending job.
type ImportPreparer interface {
	Prepare(ctx context.Context, filename string, r io.Reader) (*entities.ImportJob, []importers.Bookmark, error)
}

// ImportDispatchFunc starts a prepared job in the background. It must not
// block on the import itself.
type ImportDispatchFunc func(ctx context.Context, jobID string, items []importers.Bookmark) error

// MarkdownArchiver streams all articles as a ZIP of Markdown notes.
type MarkdownArchiver interface {
	WriteZip(ctx context.Context, w io.Writer) (exporters.ExportResult, error)
}

// SettingsStore manages user settings.
type SettingsStore interface {
	GetReaderPreferences(ctx context.Context) settingsstore.ReaderPreferences
	SetReaderPreferences(ctx context.Context, prefs settingsstore.ReaderPreferences) error
	GetStoragePersistence(ctx context.Context) settingsstore.PersistenceState
	GetExportSyncConfig(ctx context.Context) settingsstore.ExportSyncConfig
	SetExportSyncConfig(ctx context.Context, cfg settingsstore.ExportSyncConfig) error
	GetExportSyncStatus(ctx context.Context) settingsstore.ExportSyncStatus
}

// ExportScheduler controls the periodic Markdown export.
type ExportScheduler interface {
	Reschedule(ctx context.Context) error
	RunNow(ctx context.Context) error
	NextRun() *time.Time
	IsRunning() bool
}

// TaskQueue is the part of the background task client used by controllers.
type TaskQueue interface {
	EnqueueTagCleanup(ctx context.Context) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
