package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/readlater/internal/assets"
	"github.com/mrlokans/readlater/internal/database"
	"github.com/mrlokans/readlater/internal/database/articles"
	assetsrepo "github.com/mrlokans/readlater/internal/database/assets"
	"github.com/mrlokans/readlater/internal/database/importjobs"
	"github.com/mrlokans/readlater/internal/database/settings"
	"github.com/mrlokans/readlater/internal/database/tags"
	"github.com/mrlokans/readlater/internal/exporters"
	"github.com/mrlokans/readlater/internal/extractor"
	"github.com/mrlokans/readlater/internal/fetcher"
	"github.com/mrlokans/readlater/internal/http"
	"github.com/mrlokans/readlater/internal/importers"
	"github.com/mrlokans/readlater/internal/scheduler"
	"github.com/mrlokans/readlater/internal/settingsstore"
	"github.com/mrlokans/readlater/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)

// ArticleStore implementations
var _ http.ArticleStore = (*articles.Repository)(nil)
var _ importers.ArticleStore = (*articles.Repository)(nil)
var _ exporters.ArticleSource = (*articles.Repository)(nil)

// TagStore implementations
var _ http.TagStore = (*tags.Repository)(nil)
var _ importers.TagStore = (*tags.Repository)(nil)
var _ exporters.TagSource = (*tags.Repository)(nil)
var _ tasks.OrphanTagsCleaner = (*tags.Repository)(nil)

// Asset storage
var _ http.AssetStore = (*assetsrepo.Repository)(nil)
var _ assets.Store = (*assetsrepo.Repository)(nil)

// Import job tracking
var _ http.ImportJobStore = (*importjobs.Repository)(nil)
var _ importers.JobTracker = (*importjobs.Repository)(nil)

// Settings
var _ settingsstore.Repository = (*settings.Repository)(nil)
var _ http.SettingsStore = (*settingsstore.SettingsStore)(nil)
var _ importers.PersistenceRecorder = (*settingsstore.SettingsStore)(nil)
var _ scheduler.ExportSettings = (*settingsstore.SettingsStore)(nil)
var _ tasks.ExportStatusRecorder = (*settingsstore.SettingsStore)(nil)

// =============================================================================
// Ingestion
// =============================================================================

var _ importers.PageFetcher = (*fetcher.Client)(nil)
var _ importers.ContentExtractor = (*extractor.Extractor)(nil)
var _ importers.AssetCacher = (*assets.Cache)(nil)

var _ http.ImportPreparer = (*importers.Pipeline)(nil)
var _ tasks.ImportRunner = (*importers.Pipeline)(nil)

// =============================================================================
// Export
// =============================================================================

var _ http.MarkdownArchiver = (*exporters.MarkdownExporter)(nil)
var _ tasks.DirExporter = (*exporters.MarkdownExporter)(nil)
var _ http.ExportScheduler = (*scheduler.ExportScheduler)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.ImportDispatchFunc = (*tasks.Client)(nil).EnqueueImport
var _ scheduler.ExportFunc = (*tasks.Client)(nil).EnqueueExport
