package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/importers"
)

// ImportRunner runs a prepared import job.
type ImportRunner interface {
	Run(ctx context.Context, jobID string, items []importers.Bookmark, progress importers.ProgressFunc) (importers.RunResult, error)
}

// ImportBookmarksTask carries a validated export into the background. The job
// it refers to must still be pending when the task runs.
type ImportBookmarksTask struct {
	JobID string               `json:"job_id"`
	Items []importers.Bookmark `json:"items"`
}

// Config returns the queue configuration for import tasks. A job cannot be
// restarted once it left pending, so the task is never retried.
func (t ImportBookmarksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_bookmarks",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     2 * time.Hour,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportBookmarksProcessor creates a processor function for ImportBookmarksTask.
func ImportBookmarksProcessor(runner ImportRunner, logger *slog.Logger) backlite.QueueProcessor[ImportBookmarksTask] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, task ImportBookmarksTask) error {
		if runner == nil {
			return fmt.Errorf("import runner not configured")
		}

		progress := func(processed, total int, item importers.Bookmark, status entities.FetchStatus) {
			logger.Debug("import_progress",
				slog.String("job_id", task.JobID),
				slog.Int("processed", processed),
				slog.Int("total", total),
				slog.String("url", item.URL),
				slog.String("status", string(status)))
		}

		result, err := runner.Run(ctx, task.JobID, task.Items, progress)
		if err != nil {
			return fmt.Errorf("import job %s: %w", task.JobID, err)
		}

		logger.Info("import_task_finished",
			slog.String("job_id", task.JobID),
			slog.Int("succeeded", result.Succeeded),
			slog.Int("failed", result.Failed))
		return nil
	}
}

// NewImportBookmarksQueue creates a backlite queue for import tasks.
func NewImportBookmarksQueue(runner ImportRunner, logger *slog.Logger) backlite.Queue {
	return backlite.NewQueue(ImportBookmarksProcessor(runner, logger))
}

// EnqueueImport schedules a prepared job for background processing.
func (c *Client) EnqueueImport(ctx context.Context, jobID string, items []importers.Bookmark) error {
	_, err := c.Add(ImportBookmarksTask{JobID: jobID, Items: items}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("failed to enqueue import job %s: %w", jobID, err)
	}
	return nil
}
