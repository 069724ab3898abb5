package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusInProgress ImportStatus = "in_progress"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

type FetchStatus string

const (
	FetchStatusSuccess FetchStatus = "success"
	FetchStatusTimeout FetchStatus = "timeout"
	FetchStatusError   FetchStatus = "error"
)

type ImportJob struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	Status         ImportStatus `gorm:"size:20;index" json:"status"`
	SourceFilename string       `gorm:"size:255" json:"source_filename,omitempty"`
	TotalCount     int          `gorm:"not null;default:0" json:"total_count"`
	CompletedCount int          `gorm:"not null;default:0" json:"completed_count"`
	FailedCount    int          `gorm:"not null;default:0" json:"failed_count"`
	StartedAt      time.Time    `gorm:"index" json:"started_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}

func (j *ImportJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// Processed is the number of items that reached a terminal outcome.
func (j *ImportJob) Processed() int {
	return j.CompletedCount + j.FailedCount
}

type ImportJobFailure struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	ImportJobID string      `gorm:"size:36;index;not null" json:"import_job_id"`
	URL         string      `gorm:"size:2048" json:"url"`
	FetchStatus FetchStatus `gorm:"size:20" json:"fetch_status"`
	Error       string      `gorm:"type:text" json:"error"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (ImportJobFailure) TableName() string {
	return "import_job_failures"
}

func (f *ImportJobFailure) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
