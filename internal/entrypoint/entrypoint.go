package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/readlater/internal/config"
	http_controllers "github.com/mrlokans/readlater/internal/http"
	"github.com/mrlokans/readlater/internal/importers"
	"github.com/mrlokans/readlater/internal/scheduler"
	"github.com/mrlokans/readlater/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM or a listen failure, then
// shuts it down and calls onShutdown. It returns the listen error, if any.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		log.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		// Stop accepting requests before the workers they feed.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server Shutdown: %v", err)
		}
		if onShutdown != nil {
			onShutdown(shutdownCtx)
		}
		return nil
	})

	err := g.Wait()
	log.Println("Server exiting")
	return err
}

func Run(cfg *config.Config, version string) {
	logger := NewLogger(os.Stderr, cfg.Global.LogLevel, cfg.Global.LogFormat)
	slog.SetDefault(logger)

	log.Printf("Starting readlater v%s", version)

	app, err := NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// A job still in progress belonged to a process that is gone.
	if n, err := app.Jobs.FailInterruptedJobs(context.Background()); err != nil {
		log.Printf("WARNING: Failed to mark interrupted import jobs: %v", err)
	} else if n > 0 {
		log.Printf("Marked %d interrupted import jobs as failed", n)
	}

	dispatchImport := runImportInBackground(app.Pipeline, logger)
	exportFunc := func(ctx context.Context, dir string) error {
		return tasks.RunExport(ctx, app.Exporter, app.Settings, logger, dir)
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks), logger)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportBookmarksQueue(app.Pipeline, logger),
			tasks.NewExportMarkdownQueue(app.Exporter, app.Settings, logger),
			tasks.NewCleanupOrphanTagsQueue(app.Tags, logger),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		taskClient.Start(taskCtx)

		dispatchImport = taskClient.EnqueueImport
		exportFunc = taskClient.EnqueueExport
	} else {
		log.Printf("Task queue disabled, imports and exports run in-process")
	}

	exportScheduler := scheduler.NewExportScheduler(app.Settings, exportFunc)
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	if err := exportScheduler.Start(schedulerCtx); err != nil {
		log.Printf("WARNING: Export scheduler not started: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:           app.DB,
		Articles:           app.Articles,
		Tags:               app.Tags,
		Assets:             app.Assets,
		ImportJobs:         app.Jobs,
		ImportPreparer:     app.Pipeline,
		DispatchImport:     dispatchImport,
		MaxUploadBytes:     cfg.Import.MaxUploadBytes,
		Archiver:           app.Exporter,
		Settings:           app.Settings,
		ExportScheduler:    exportScheduler,
		SearchDefaultLimit: cfg.Search.DefaultLimit,
		Version:            version,
		Logger:             logger,
	}
	// Left unset rather than a typed nil so the task routes stay off.
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		exportScheduler.Stop()
		schedulerCancel()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	if err := Serve(router, cfg, onShutdown); err != nil {
		log.Printf("Server error: %v", err)
	}
}

// runImportInBackground runs each accepted import on its own goroutine.
// Used when the task queue is disabled.
func runImportInBackground(pipeline *importers.Pipeline, logger *slog.Logger) http_controllers.ImportDispatchFunc {
	return func(ctx context.Context, jobID string, items []importers.Bookmark) error {
		go func() {
			result, err := pipeline.Run(ctx, jobID, items, nil)
			if err != nil {
				logger.Error("import_failed",
					slog.String("job_id", jobID),
					slog.String("error", err.Error()))
				return
			}
			logger.Info("import_finished",
				slog.String("job_id", jobID),
				slog.Int("succeeded", result.Succeeded),
				slog.Int("failed", result.Failed))
		}()
		return nil
	}
}
