// Package importjobs provides database operations for import job tracking.
//
// A job moves pending -> in_progress -> completed|failed, each step at most
// once. A job that never started can go straight from pending to failed.
// Counters are bumped with single UPDATE statements evaluated by the
// database, so concurrent workers never lose increments.
//
// # Usage
//
//	repo := importjobs.NewRepository(db)
//	job, err := repo.CreateJob(ctx, len(items), "ril_export.html")
//	err = repo.StartJob(ctx, job.ID)
//	err = repo.RecordResult(ctx, job.ID, true)
//	err = repo.CompleteJob(ctx, job.ID, false)
package importjobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/readlater/internal/entities"
)

var (
	ErrJobNotFound       = errors.New("import job not found")
	ErrInvalidTransition = errors.New("invalid import job transition")
)

// Failure describes one item that could not be imported.
type Failure struct {
	URL         string
	FetchStatus entities.FetchStatus
	Error       string
}

// Repository handles all import job database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new import jobs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateJob records a new pending job for total items.
func (r *Repository) CreateJob(ctx context.Context, total int, sourceFilename string) (*entities.ImportJob, error) {
	job := &entities.ImportJob{
		Status:         entities.ImportStatusPending,
		SourceFilename: sourceFilename,
		TotalCount:     total,
		StartedAt:      time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}
	return job, nil
}

// StartJob moves a pending job to in_progress.
func (r *Repository) StartJob(ctx context.Context, id string) error {
	return r.transition(ctx, id, entities.ImportStatusPending, map[string]any{
		"status":     entities.ImportStatusInProgress,
		"started_at": time.Now().UTC(),
	})
}

// RecordResult increments the completed or failed counter by one.
func (r *Repository) RecordResult(ctx context.Context, id string, success bool) error {
	return r.increment(r.db.WithContext(ctx), id, success)
}

// RecordFailure stores the failure detail and increments failed_count in
// one transaction.
func (r *Repository) RecordFailure(ctx context.Context, id string, failure Failure) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.increment(tx, id, false); err != nil {
			return err
		}
		row := &entities.ImportJobFailure{
			ImportJobID: id,
			URL:         failure.URL,
			FetchStatus: failure.FetchStatus,
			Error:       failure.Error,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to record import failure: %w", err)
		}
		return nil
	})
}

// CompleteJob finalizes an in_progress job as completed, or failed when
// failed is true.
func (r *Repository) CompleteJob(ctx context.Context, id string, failed bool) error {
	status := entities.ImportStatusCompleted
	if failed {
		status = entities.ImportStatusFailed
	}
	return r.transition(ctx, id, entities.ImportStatusInProgress, map[string]any{
		"status":       status,
		"completed_at": time.Now().UTC(),
	})
}

// AbandonJob fails a job that never started, such as one whose background
// run could not be scheduled.
func (r *Repository) AbandonJob(ctx context.Context, id string) error {
	return r.transition(ctx, id, entities.ImportStatusPending, map[string]any{
		"status":       entities.ImportStatusFailed,
		"completed_at": time.Now().UTC(),
	})
}

// FailInterruptedJobs marks every in_progress job as failed. Called on
// startup: a job still in progress then belonged to a process that died.
func (r *Repository) FailInterruptedJobs(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.ImportJob{}).
		Where("status = ?", entities.ImportStatusInProgress).
		Updates(map[string]any{
			"status":       entities.ImportStatusFailed,
			"completed_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// GetJob retrieves a job by ID.
func (r *Repository) GetJob(ctx context.Context, id string) (*entities.ImportJob, error) {
	var job entities.ImportJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns jobs most recent first.
func (r *Repository) ListJobs(ctx context.Context, limit int) ([]entities.ImportJob, error) {
	var jobs []entities.ImportJob
	query := r.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&jobs).Error
	return jobs, err
}

// ListFailures returns the recorded item failures of a job.
func (r *Repository) ListFailures(ctx context.Context, id string) ([]entities.ImportJobFailure, error) {
	var failures []entities.ImportJobFailure
	err := r.db.WithContext(ctx).
		Where("import_job_id = ?", id).
		Order("created_at ASC").
		Find(&failures).Error
	return failures, err
}

func (r *Repository) increment(db *gorm.DB, id string, success bool) error {
	column := "failed_count"
	if success {
		column = "completed_count"
	}
	result := db.Model(&entities.ImportJob{}).
		Where("id = ? AND status = ?", id, entities.ImportStatusInProgress).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to update import job %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missingOrWrongState(db, id)
	}
	return nil
}

func (r *Repository) transition(ctx context.Context, id string, from entities.ImportStatus, updates map[string]any) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&entities.ImportJob{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update import job %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missingOrWrongState(db, id)
	}
	return nil
}

func (r *Repository) missingOrWrongState(db *gorm.DB, id string) error {
	var job entities.ImportJob
	err := db.Select("id", "status").Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrJobNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: job %s is %s", ErrInvalidTransition, id, job.Status)
}
