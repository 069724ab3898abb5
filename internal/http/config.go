package http

import "log/slog"

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database Pinger
	Articles ArticleStore
	Tags     TagStore
	Assets   AssetStore

	// Imports
	ImportJobs     ImportJobStore
	ImportPreparer ImportPreparer
	DispatchImport ImportDispatchFunc
	MaxUploadBytes int64

	// Export and settings
	Archiver        MarkdownArchiver
	Settings        SettingsStore
	ExportScheduler ExportScheduler

	// Search
	SearchDefaultLimit int

	// Task queue client (optional)
	TaskQueue TaskQueue

	// Application info
	Version string
	Logger  *slog.Logger
}
