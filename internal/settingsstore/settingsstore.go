package settingsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/readlater/internal/entities"
)

// Repository is the key/value persistence the store is built on.
type Repository interface {
	GetSetting(ctx context.Context, key string) (*entities.Setting, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Priority: database > configuration > default
type SettingsStore struct {
	repo       Repository
	exportSync ExportSyncConfig
}

// New creates a store. exportDefaults are used for export sync settings that
// were never overridden in the database.
func New(repo Repository, exportDefaults ExportSyncConfig) *SettingsStore {
	return &SettingsStore{repo: repo, exportSync: exportDefaults}
}

var ErrInvalidReaderPreferences = errors.New("invalid reader preferences")

type ReaderPreferences struct {
	FontSize  float64 `json:"fontSize"`
	LineWidth int     `json:"lineWidth"`
	DarkMode  bool    `json:"darkMode"`
}

func DefaultReaderPreferences() ReaderPreferences {
	return ReaderPreferences{
		FontSize:  1.05,
		LineWidth: 72,
		DarkMode:  false,
	}
}

// GetReaderPreferences returns stored preferences merged over the defaults.
// Missing or unreadable values yield the defaults.
func (s *SettingsStore) GetReaderPreferences(ctx context.Context) ReaderPreferences {
	prefs := DefaultReaderPreferences()

	setting, err := s.repo.GetSetting(ctx, entities.SettingKeyReaderPreferences)
	if err != nil || setting.Value == "" {
		return prefs
	}

	stored := prefs
	if err := json.Unmarshal([]byte(setting.Value), &stored); err != nil {
		return prefs
	}
	return stored
}

func (s *SettingsStore) SetReaderPreferences(ctx context.Context, prefs ReaderPreferences) error {
	if prefs.FontSize <= 0 || prefs.LineWidth <= 0 {
		return fmt.Errorf("%w: font size and line width must be positive", ErrInvalidReaderPreferences)
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return s.repo.SetSetting(ctx, entities.SettingKeyReaderPreferences, string(raw))
}

func (s *SettingsStore) ClearReaderPreferences(ctx context.Context) error {
	err := s.repo.DeleteSetting(ctx, entities.SettingKeyReaderPreferences)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
