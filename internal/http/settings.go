package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlater/internal/settingsstore"
)

// SettingsController handles reader, storage and export settings.
type SettingsController struct {
	store     SettingsStore
	scheduler ExportScheduler
}

func NewSettingsController(store SettingsStore, scheduler ExportScheduler) *SettingsController {
	return &SettingsController{store: store, scheduler: scheduler}
}

// ExportSettingsResponse is the response for GET /api/settings/export
type ExportSettingsResponse struct {
	Config    settingsstore.ExportSyncConfig `json:"config"`
	Status    settingsstore.ExportSyncStatus `json:"status"`
	NextRun   *time.Time                     `json:"next_run,omitempty"`
	IsRunning bool                           `json:"is_running"`
}

// GetReaderPreferences handles GET /api/settings/reader
func (sc *SettingsController) GetReaderPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, sc.store.GetReaderPreferences(c.Request.Context()))
}

// UpdateReaderPreferences handles PUT /api/settings/reader
// Fields missing from the body keep their current values.
func (sc *SettingsController) UpdateReaderPreferences(c *gin.Context) {
	ctx := c.Request.Context()
	prefs := sc.store.GetReaderPreferences(ctx)
	if err := c.ShouldBindJSON(&prefs); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	err := sc.store.SetReaderPreferences(ctx, prefs)
	if errors.Is(err, settingsstore.ErrInvalidReaderPreferences) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "save reader preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// GetStoragePersistence handles GET /api/settings/storage
func (sc *SettingsController) GetStoragePersistence(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": sc.store.GetStoragePersistence(c.Request.Context())})
}

// GetExportSettings handles GET /api/settings/export
func (sc *SettingsController) GetExportSettings(c *gin.Context) {
	ctx := c.Request.Context()
	response := ExportSettingsResponse{
		Config: sc.store.GetExportSyncConfig(ctx),
		Status: sc.store.GetExportSyncStatus(ctx),
	}
	if sc.scheduler != nil {
		response.NextRun = sc.scheduler.NextRun()
		response.IsRunning = sc.scheduler.IsRunning()
	}
	c.JSON(http.StatusOK, response)
}

// UpdateExportSettings handles PUT /api/settings/export
// Saves the settings and restarts the scheduler with them.
func (sc *SettingsController) UpdateExportSettings(c *gin.Context) {
	ctx := c.Request.Context()
	cfg := sc.store.GetExportSyncConfig(ctx)
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if err := settingsstore.ValidateCronSchedule(cfg.Schedule); err != nil {
		respondBadRequest(c, "invalid schedule: "+err.Error())
		return
	}
	if cfg.Enabled && cfg.ExportDir == "" {
		respondBadRequest(c, "export_dir is required when enabled")
		return
	}

	if err := sc.store.SetExportSyncConfig(ctx, cfg); err != nil {
		respondInternalError(c, err, "save export settings")
		return
	}

	if sc.scheduler != nil {
		// The schedule outlives this request.
		if err := sc.scheduler.Reschedule(context.WithoutCancel(ctx)); err != nil {
			respondInternalError(c, err, "reschedule export")
			return
		}
	}

	sc.GetExportSettings(c)
}
