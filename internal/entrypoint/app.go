package entrypoint

import (
	"fmt"
	"log/slog"

	"github.com/mrlokans/readlater/internal/assets"
	"github.com/mrlokans/readlater/internal/config"
	"github.com/mrlokans/readlater/internal/database"
	"github.com/mrlokans/readlater/internal/database/articles"
	assetsrepo "github.com/mrlokans/readlater/internal/database/assets"
	"github.com/mrlokans/readlater/internal/database/importjobs"
	"github.com/mrlokans/readlater/internal/database/settings"
	"github.com/mrlokans/readlater/internal/database/tags"
	"github.com/mrlokans/readlater/internal/exporters"
	"github.com/mrlokans/readlater/internal/extractor"
	"github.com/mrlokans/readlater/internal/fetcher"
	"github.com/mrlokans/readlater/internal/importers"
	"github.com/mrlokans/readlater/internal/settingsstore"
)

// App holds the storage layer and the services built on it. The HTTP server
// and the CLI commands share it.
type App struct {
	DB       *database.Database
	Articles *articles.Repository
	Tags     *tags.Repository
	Assets   *assetsrepo.Repository
	Jobs     *importjobs.Repository
	Settings *settingsstore.SettingsStore
	Pipeline *importers.Pipeline
	Exporter *exporters.MarkdownExporter
	Logger   *slog.Logger
}

// NewApp opens the database and wires every service from cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return newApp(cfg, db, logger), nil
}

func newApp(cfg *config.Config, db *database.Database, logger *slog.Logger) *App {
	app := &App{
		DB:       db,
		Articles: articles.NewRepository(db.DB),
		Tags:     tags.NewRepository(db.DB),
		Assets:   assetsrepo.NewRepository(db.DB),
		Jobs:     importjobs.NewRepository(db.DB),
		Logger:   logger,
	}
	app.Settings = settingsstore.New(
		settings.NewRepository(db.DB),
		settingsstore.NewExportSyncConfig(cfg.ExportSync),
	)

	pageFetcher := fetcher.NewClient(fetcher.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})
	assetCache := assets.NewCache(app.Assets, assets.Config{
		Timeout:       cfg.Assets.Timeout,
		MaxAssetBytes: cfg.Assets.MaxAssetBytes,
		UserAgent:     cfg.Fetch.UserAgent,
	}, logger)

	app.Pipeline = importers.NewPipeline(importers.Dependencies{
		Fetcher:     pageFetcher,
		Extractor:   extractor.New(),
		Articles:    app.Articles,
		Tags:        app.Tags,
		Assets:      assetCache,
		Jobs:        app.Jobs,
		Persistence: app.Settings,
		Probe:       settingsstore.DatabaseFileProbe(cfg.Database.Path),
		Logger:      logger,
	}, importers.Options{
		FetchConcurrency: cfg.Fetch.Concurrency,
		FetchTimeout:     cfg.Fetch.Timeout,
		AssetConcurrency: cfg.Assets.Concurrency,
	})
	app.Exporter = exporters.NewMarkdownExporter(app.Articles, app.Tags)

	return app
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
