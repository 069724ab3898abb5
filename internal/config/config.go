package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Fetch
		Assets
		Import
		Search
		ExportSync
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		LogLevel                 string // debug, info, warn, error
		LogFormat                string // text or json
	}
	Database struct {
		Path string
	}
	Fetch struct {
		Concurrency  int
		Timeout      time.Duration
		UserAgent    string
		MaxBodyBytes int64
	}
	Assets struct {
		Concurrency   int
		Timeout       time.Duration
		MaxAssetBytes int64
	}
	Import struct {
		MaxUploadBytes int64
	}
	Search struct {
		DefaultLimit int
	}
	ExportSync struct {
		Enabled  bool
		Dir      string
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("database_path", DefaultDatabasePath)

	// Ingestion defaults
	v.SetDefault("fetch_concurrency", DefaultFetchConcurrency)
	v.SetDefault("fetch_timeout", DefaultFetchTimeout)
	v.SetDefault("fetch_user_agent", DefaultUserAgent)
	v.SetDefault("fetch_max_body_bytes", 10<<20)
	v.SetDefault("asset_concurrency", DefaultAssetConcurrency)
	v.SetDefault("asset_timeout", "30s")
	v.SetDefault("asset_max_bytes", 20<<20)
	v.SetDefault("import_max_upload_bytes", 32<<20)
	v.SetDefault("search_default_limit", 50)

	v.SetDefault("export_sync_enabled", false)
	v.SetDefault("export_sync_dir", "")
	v.SetDefault("export_sync_schedule", "0 * * * *") // Hourly at :00

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_max_retries", 1)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "2h")
	v.SetDefault("task_release_after", "3h")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			LogLevel:                 v.GetString("LOG_LEVEL"),
			LogFormat:                v.GetString("LOG_FORMAT"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Fetch: Fetch{
			Concurrency:  v.GetInt("FETCH_CONCURRENCY"),
			Timeout:      v.GetDuration("FETCH_TIMEOUT"),
			UserAgent:    v.GetString("FETCH_USER_AGENT"),
			MaxBodyBytes: v.GetInt64("FETCH_MAX_BODY_BYTES"),
		},
		Assets: Assets{
			Concurrency:   v.GetInt("ASSET_CONCURRENCY"),
			Timeout:       v.GetDuration("ASSET_TIMEOUT"),
			MaxAssetBytes: v.GetInt64("ASSET_MAX_BYTES"),
		},
		Import: Import{
			MaxUploadBytes: v.GetInt64("IMPORT_MAX_UPLOAD_BYTES"),
		},
		Search: Search{
			DefaultLimit: v.GetInt("SEARCH_DEFAULT_LIMIT"),
		},
		ExportSync: ExportSync{
			Enabled:  v.GetBool("EXPORT_SYNC_ENABLED"),
			Dir:      v.GetString("EXPORT_SYNC_DIR"),
			Schedule: v.GetString("EXPORT_SYNC_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
