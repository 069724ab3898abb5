package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional dependencies that are nil leave their routes unregistered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)

	api := router.Group("/api")

	// Articles
	articlesController := NewArticlesController(cfg.Articles, cfg.Tags)
	api.GET("/articles", articlesController.ListArticles)
	api.GET("/articles/:id", articlesController.GetArticle)
	api.PATCH("/articles/:id", articlesController.UpdateArticle)
	api.GET("/articles/:id/content", articlesController.GetContent)

	// Tags
	tagsController := NewTagsController(cfg.Tags, cfg.Articles, cfg.TaskQueue)
	api.GET("/articles/:id/tags", tagsController.GetArticleTags)
	api.PUT("/articles/:id/tags", tagsController.SetArticleTags)
	api.POST("/articles/:id/tags", tagsController.AddArticleTags)
	api.GET("/tags", tagsController.GetAllTags)
	api.POST("/tags", tagsController.CreateTag)
	api.POST("/tags/cleanup", tagsController.CleanupOrphanTags)
	api.DELETE("/tags/:id", tagsController.DeleteTag)

	// Cached images
	if cfg.Assets != nil {
		assetsController := NewAssetsController(cfg.Assets)
		api.GET("/assets/:id", assetsController.GetAsset)
	}

	// Imports
	if cfg.ImportJobs != nil && cfg.ImportPreparer != nil && cfg.DispatchImport != nil {
		importsController := NewImportsController(cfg.ImportJobs, cfg.ImportPreparer, cfg.DispatchImport, cfg.MaxUploadBytes, logger)
		api.POST("/imports", importsController.CreateImport)
		api.GET("/imports", importsController.ListImports)
		api.GET("/imports/:id", importsController.GetImport)
	}

	// Search
	searchController := NewSearchController(cfg.Articles, cfg.Tags, cfg.SearchDefaultLimit)
	api.GET("/search", searchController.Search)

	// Export
	if cfg.Archiver != nil {
		exportController := NewExportController(cfg.Archiver, cfg.ExportScheduler)
		api.GET("/export/markdown.zip", exportController.DownloadMarkdownZip)
		api.POST("/export/run", exportController.RunExport)
	}

	// Settings
	if cfg.Settings != nil {
		settingsController := NewSettingsController(cfg.Settings, cfg.ExportScheduler)
		api.GET("/settings/reader", settingsController.GetReaderPreferences)
		api.PUT("/settings/reader", settingsController.UpdateReaderPreferences)
		api.GET("/settings/storage", settingsController.GetStoragePersistence)
		api.GET("/settings/export", settingsController.GetExportSettings)
		api.PUT("/settings/export", settingsController.UpdateExportSettings)
	}

	// Task status
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
