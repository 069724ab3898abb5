package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"
)

// OrphanTagsCleaner provides the ability to delete orphan tags.
type OrphanTagsCleaner interface {
	DeleteOrphanTags(ctx context.Context) (int64, error)
}

// CleanupOrphanTagsTask removes tags that are not linked to any article.
type CleanupOrphanTagsTask struct{}

// Config returns the queue configuration for cleanup tasks.
func (t CleanupOrphanTagsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphan_tags",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupOrphanTagsProcessor creates a processor function for CleanupOrphanTagsTask.
func CleanupOrphanTagsProcessor(cleaner OrphanTagsCleaner, logger *slog.Logger) backlite.QueueProcessor[CleanupOrphanTagsTask] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, task CleanupOrphanTagsTask) error {
		if cleaner == nil {
			return fmt.Errorf("orphan tags cleaner not configured")
		}

		deleted, err := cleaner.DeleteOrphanTags(ctx)
		if err != nil {
			return fmt.Errorf("cleanup orphan tags: %w", err)
		}

		logger.Info("orphan_tags_deleted", slog.Int64("count", deleted))
		return nil
	}
}

// NewCleanupOrphanTagsQueue creates a backlite queue for tag cleanup tasks.
func NewCleanupOrphanTagsQueue(cleaner OrphanTagsCleaner, logger *slog.Logger) backlite.Queue {
	return backlite.NewQueue(CleanupOrphanTagsProcessor(cleaner, logger))
}

// EnqueueTagCleanup schedules removal of unused tags and returns the task ID.
func (c *Client) EnqueueTagCleanup(ctx context.Context) (string, error) {
	ids, err := c.Add(CleanupOrphanTagsTask{}).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue tag cleanup: %w", err)
	}
	return ids[0], nil
}
