// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the narrow interface they need next to the code that
// uses it; repositories and services satisfy them implicitly. checks.go pins
// every pairing at compile time.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - ArticleStore, TagStore, AssetStore, ImportJobStore: HTTP controllers (internal/http/stores.go)
//   - ArticleStore, TagStore, JobTracker: the import pipeline (internal/importers/pipeline.go)
//   - ArticleSource, TagSource: Markdown export (internal/exporters/generic.go)
//   - Repository: key/value settings persistence (internal/settingsstore/settingsstore.go)
//
// ## Ingestion Interfaces
//
//   - PageFetcher: bounded-concurrency page download (internal/importers/pipeline.go)
//   - ContentExtractor: readable content from a page (internal/importers/pipeline.go)
//   - AssetCacher: local image caching and rewriting (internal/importers/pipeline.go)
//
// ## Background Work Interfaces
//
//   - ImportRunner, DirExporter, OrphanTagsCleaner: task processors (internal/tasks/)
//   - ExportSettings, ExportFunc: the periodic export (internal/scheduler/export_sync.go)
//   - TaskQueue, ImportDispatchFunc: handing work off from a request (internal/http/stores.go)
//
// # Adding a New Import Source
//
//  1. Parse the new format into []importers.Bookmark.
//
//  2. Record a pending job and hand the items to the pipeline:
//
//     job, err := jobs.CreateJob(ctx, len(items), filename)
//     result, err := pipeline.Run(ctx, job.ID, items, nil)
//
//  3. Expose it through a controller in internal/http/ and register the
//     route in router.go.
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/notes/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register the entities in database.Migrate.
//
//  4. Add compile-time check:
//
//     var _ http.NoteStore = (*notes.Repository)(nil)
//
// # Compile-Time Interface Checks
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
