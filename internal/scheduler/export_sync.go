package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/readlater/internal/settingsstore"
)

var ErrExportDirNotConfigured = errors.New("export directory not configured")

// ExportFunc performs one Markdown export into dir. It may run the export
// inline or hand it to the task queue.
type ExportFunc func(ctx context.Context, dir string) error

// ExportSettings is the part of the settings store the scheduler reads.
type ExportSettings interface {
	GetExportSyncConfig(ctx context.Context) settingsstore.ExportSyncConfig
	SetExportSyncStatus(ctx context.Context, status, message string) error
}

// ExportScheduler runs the Markdown export periodically.
type ExportScheduler struct {
	settings ExportSettings
	export   ExportFunc

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	cancel    context.CancelFunc
}

// NewExportScheduler creates a new scheduler instance
func NewExportScheduler(settings ExportSettings, export ExportFunc) *ExportScheduler {
	return &ExportScheduler{
		settings: settings,
		export:   export,
		cron:     newCron(),
	}
}

func newCron() *cron.Cron {
	return cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
}

// Start begins the scheduler if export sync is enabled and has a target
// directory. It is a no-op when already running.
func (s *ExportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	cfg := s.settings.GetExportSyncConfig(ctx)

	if !cfg.Enabled {
		log.Printf("Export scheduler: disabled")
		return nil
	}

	if cfg.ExportDir == "" {
		log.Printf("Export scheduler: export directory not configured, skipping")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", cfg.Schedule, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	entryID, err := s.cron.AddFunc(cfg.Schedule, func() {
		if err := s.RunNow(runCtx); err != nil {
			log.Printf("Export scheduler: run failed: %v", err)
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule export job: %w", err)
	}
	s.entryID = entryID
	s.cancel = cancel

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(cfg.Schedule)
	log.Printf("Export scheduler: started with schedule '%s'. Next run: %v", cfg.Schedule, nextRun)

	// Stop together with the caller's context
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-runCtx.Done():
		}
	}()

	return nil
}

// Stop waits for a running export to finish and removes the schedule.
func (s *ExportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.cron.Remove(s.entryID)

	s.cancel()
	s.cancel = nil
	s.isRunning = false

	log.Printf("Export scheduler: stopped")
}

// Reschedule applies changed settings.
func (s *ExportScheduler) Reschedule(ctx context.Context) error {
	s.Stop()
	return s.Start(ctx)
}

// RunNow performs an export immediately using the current settings.
func (s *ExportScheduler) RunNow(ctx context.Context) error {
	cfg := s.settings.GetExportSyncConfig(ctx)

	if cfg.ExportDir == "" {
		log.Printf("Export sync: skipped (export directory not configured)")
		_ = s.settings.SetExportSyncStatus(ctx, "failed", "Export directory not configured")
		return ErrExportDirNotConfigured
	}

	log.Printf("Export sync: starting export to %s", cfg.ExportDir)
	return s.export(ctx, cfg.ExportDir)
}

// IsRunning returns whether the scheduler is active
func (s *ExportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next export will occur, or nil when stopped.
func (s *ExportScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if entry.ID == 0 {
		return nil
	}
	next := entry.Next
	return &next
}
