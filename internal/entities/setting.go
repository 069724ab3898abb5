package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// JSON-encoded reader preferences (font size, line width, dark mode)
	SettingKeyReaderPreferences = "reader_preferences"

	// One of unknown, granted, denied, unsupported
	SettingKeyStoragePersistence = "storage_persistence"

	// Markdown export sync
	SettingKeyExportSyncEnabled     = "export_sync_enabled"
	SettingKeyExportSyncDir         = "export_sync_dir"
	SettingKeyExportSyncSchedule    = "export_sync_schedule"
	SettingKeyExportSyncLastAt      = "export_sync_last_at"
	SettingKeyExportSyncLastStatus  = "export_sync_last_status"
	SettingKeyExportSyncLastMessage = "export_sync_last_message"
)
