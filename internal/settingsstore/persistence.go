package settingsstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/mrlokans/readlater/internal/entities"
)

// PersistenceState records whether the library is kept on durable storage.
type PersistenceState string

const (
	PersistenceUnknown     PersistenceState = "unknown"
	PersistenceGranted     PersistenceState = "granted"
	PersistenceDenied      PersistenceState = "denied"
	PersistenceUnsupported PersistenceState = "unsupported"
)

func (p PersistenceState) Valid() bool {
	switch p {
	case PersistenceUnknown, PersistenceGranted, PersistenceDenied, PersistenceUnsupported:
		return true
	}
	return false
}

// PersistenceProbe checks the storage once and reports the outcome.
type PersistenceProbe func(ctx context.Context) PersistenceState

// GetStoragePersistence returns the stored state; anything unrecognised is
// reported as unknown.
func (s *SettingsStore) GetStoragePersistence(ctx context.Context) PersistenceState {
	setting, err := s.repo.GetSetting(ctx, entities.SettingKeyStoragePersistence)
	if err != nil {
		return PersistenceUnknown
	}
	state := PersistenceState(setting.Value)
	if !state.Valid() {
		return PersistenceUnknown
	}
	return state
}

func (s *SettingsStore) SetStoragePersistence(ctx context.Context, state PersistenceState) error {
	if !state.Valid() {
		return errors.New("invalid storage persistence state: " + string(state))
	}
	return s.repo.SetSetting(ctx, entities.SettingKeyStoragePersistence, string(state))
}

// EnsureStoragePersistence runs probe only while the state is still unknown
// and stores its answer. The resulting state is returned either way.
func (s *SettingsStore) EnsureStoragePersistence(ctx context.Context, probe PersistenceProbe) (PersistenceState, error) {
	current := s.GetStoragePersistence(ctx)
	if current != PersistenceUnknown || probe == nil {
		return current, nil
	}

	state := probe(ctx)
	if !state.Valid() {
		state = PersistenceUnknown
	}
	if state == PersistenceUnknown {
		return state, nil
	}
	if err := s.SetStoragePersistence(ctx, state); err != nil {
		return current, err
	}
	return state, nil
}

// DatabaseFileProbe checks that the directory holding dbPath accepts synced
// writes. In-memory databases are unsupported.
func DatabaseFileProbe(dbPath string) PersistenceProbe {
	return func(ctx context.Context) PersistenceState {
		if dbPath == "" || dbPath == ":memory:" || filepath.Base(dbPath) == ":memory:" {
			return PersistenceUnsupported
		}
		dir := filepath.Dir(dbPath)

		f, err := os.CreateTemp(dir, ".persistence_probe_")
		if err != nil {
			return PersistenceDenied
		}
		name := f.Name()
		defer os.Remove(name)

		if _, err := f.Write([]byte("ok")); err != nil {
			f.Close()
			return PersistenceDenied
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return PersistenceDenied
		}
		if err := f.Close(); err != nil {
			return PersistenceDenied
		}
		return PersistenceGranted
	}
}
