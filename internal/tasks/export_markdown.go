package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readlater/internal/exporters"
)

// DirExporter writes a Markdown export into a directory.
type DirExporter interface {
	ExportToDir(ctx context.Context, dir string) (exporters.ExportResult, error)
}

// ExportStatusRecorder stores the outcome of the last export.
type ExportStatusRecorder interface {
	SetExportSyncStatus(ctx context.Context, status, message string) error
}

// ExportMarkdownTask writes every article as a Markdown note into Dir.
type ExportMarkdownTask struct {
	Dir string `json:"dir"`
}

// Config returns the queue configuration for export tasks.
func (t ExportMarkdownTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "export_markdown",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExportMarkdownProcessor creates a processor function for ExportMarkdownTask.
// The status recorder is optional.
func ExportMarkdownProcessor(exporter DirExporter, status ExportStatusRecorder, logger *slog.Logger) backlite.QueueProcessor[ExportMarkdownTask] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, task ExportMarkdownTask) error {
		if exporter == nil {
			return fmt.Errorf("markdown exporter not configured")
		}
		return RunExport(ctx, exporter, status, logger, task.Dir)
	}
}

// RunExport exports into dir and records the outcome.
func RunExport(ctx context.Context, exporter DirExporter, status ExportStatusRecorder, logger *slog.Logger, dir string) error {
	started := time.Now()

	result, err := exporter.ExportToDir(ctx, dir)
	if err != nil {
		logger.Error("markdown_export_failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		recordStatus(ctx, status, logger, "failed", fmt.Sprintf("Export failed: %v", err))
		return fmt.Errorf("export markdown to %s: %w", dir, err)
	}

	message := fmt.Sprintf("Exported %d articles (%d failed) in %v",
		result.ArticlesProcessed, result.ArticlesFailed, time.Since(started).Round(time.Millisecond))
	logger.Info("markdown_export_finished",
		slog.String("dir", dir),
		slog.Int("articles", result.ArticlesProcessed),
		slog.Int("failed", result.ArticlesFailed))
	recordStatus(ctx, status, logger, "success", message)
	return nil
}

func recordStatus(ctx context.Context, status ExportStatusRecorder, logger *slog.Logger, state, message string) {
	if status == nil {
		return
	}
	if err := status.SetExportSyncStatus(ctx, state, message); err != nil {
		logger.Warn("export_status_update_failed", slog.String("error", err.Error()))
	}
}

// NewExportMarkdownQueue creates a backlite queue for export tasks.
func NewExportMarkdownQueue(exporter DirExporter, status ExportStatusRecorder, logger *slog.Logger) backlite.Queue {
	return backlite.NewQueue(ExportMarkdownProcessor(exporter, status, logger))
}

// EnqueueExport schedules a Markdown export into dir.
func (c *Client) EnqueueExport(ctx context.Context, dir string) error {
	_, err := c.Add(ExportMarkdownTask{Dir: dir}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("failed to enqueue export to %s: %w", dir, err)
	}
	return nil
}
