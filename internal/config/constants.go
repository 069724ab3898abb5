package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./readlater.db"

	DefaultFetchConcurrency = 3
	DefaultFetchTimeout     = "15s"
	DefaultAssetConcurrency = 4
	DefaultUserAgent        = "readlater/1.0 (+offline reader)"
)
