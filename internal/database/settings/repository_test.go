package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readlater/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	dbPath := filepath.Join(t.TempDir(), "settings.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Setting{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestRepository_SetSetting_New(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	err := repo.SetSetting(ctx, "theme", "dark")
	require.NoError(t, err)

	setting, err := repo.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "theme", setting.Key)
	assert.Equal(t, "dark", setting.Value)
}

func TestRepository_SetSetting_Update(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SetSetting(ctx, "theme", "light"))
	require.NoError(t, repo.SetSetting(ctx, "theme", "dark"))

	setting, err := repo.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", setting.Value)
}

func TestRepository_GetSetting_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetSetting(context.Background(), "nonexistent")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepository_DeleteSetting(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SetSetting(ctx, "to_delete", "value"))
	require.NoError(t, repo.DeleteSetting(ctx, "to_delete"))

	_, err := repo.GetSetting(ctx, "to_delete")
	assert.Error(t, err)
}
