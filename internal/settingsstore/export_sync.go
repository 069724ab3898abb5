package settingsstore

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/readlater/internal/config"
	"github.com/mrlokans/readlater/internal/entities"
)

// ExportSyncConfig represents the effective configuration for the periodic
// markdown export.
type ExportSyncConfig struct {
	Enabled   bool   `json:"enabled"`
	ExportDir string `json:"export_dir"`
	Schedule  string `json:"schedule"`
}

// ExportSyncStatus represents the last export run.
type ExportSyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"`  // "success", "failed", ""
	Message    string     `json:"message,omitempty"` // Error message or stats summary
}

func NewExportSyncConfig(cfg config.ExportSync) ExportSyncConfig {
	return ExportSyncConfig{
		Enabled:   cfg.Enabled,
		ExportDir: cfg.Dir,
		Schedule:  cfg.Schedule,
	}
}

// GetExportSyncConfig returns the effective configuration.
func (s *SettingsStore) GetExportSyncConfig(ctx context.Context) ExportSyncConfig {
	cfg := s.exportSync
	if v, ok := s.lookup(ctx, entities.SettingKeyExportSyncEnabled); ok {
		cfg.Enabled = v == "true" || v == "1"
	}
	if v, ok := s.lookup(ctx, entities.SettingKeyExportSyncDir); ok {
		cfg.ExportDir = v
	}
	if v, ok := s.lookup(ctx, entities.SettingKeyExportSyncSchedule); ok {
		cfg.Schedule = v
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 * * * *"
	}
	return cfg
}

// SetExportSyncConfig stores database overrides for every field.
func (s *SettingsStore) SetExportSyncConfig(ctx context.Context, cfg ExportSyncConfig) error {
	if err := ValidateCronSchedule(cfg.Schedule); err != nil {
		return err
	}
	if err := s.repo.SetSetting(ctx, entities.SettingKeyExportSyncEnabled, strconv.FormatBool(cfg.Enabled)); err != nil {
		return err
	}
	if err := s.repo.SetSetting(ctx, entities.SettingKeyExportSyncDir, cfg.ExportDir); err != nil {
		return err
	}
	return s.repo.SetSetting(ctx, entities.SettingKeyExportSyncSchedule, cfg.Schedule)
}

// GetExportSyncStatus returns the last export status
func (s *SettingsStore) GetExportSyncStatus(ctx context.Context) ExportSyncStatus {
	status := ExportSyncStatus{}

	if v, ok := s.lookup(ctx, entities.SettingKeyExportSyncLastAt); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			status.LastSyncAt = &ts
		}
	}
	status.Status, _ = s.lookup(ctx, entities.SettingKeyExportSyncLastStatus)
	status.Message, _ = s.lookup(ctx, entities.SettingKeyExportSyncLastMessage)

	return status
}

// SetExportSyncStatus updates the export status
func (s *SettingsStore) SetExportSyncStatus(ctx context.Context, status, message string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := s.repo.SetSetting(ctx, entities.SettingKeyExportSyncLastAt, now); err != nil {
		return err
	}
	if err := s.repo.SetSetting(ctx, entities.SettingKeyExportSyncLastStatus, status); err != nil {
		return err
	}
	return s.repo.SetSetting(ctx, entities.SettingKeyExportSyncLastMessage, message)
}

func (s *SettingsStore) lookup(ctx context.Context, key string) (string, bool) {
	setting, err := s.repo.GetSetting(ctx, key)
	if err != nil || setting.Value == "" {
		return "", false
	}
	return setting.Value, true
}

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetNextRunTime calculates when the next export will run based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
