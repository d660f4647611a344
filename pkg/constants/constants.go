// Package constants provides shared constants used throughout the featurereg
// codebase: timeouts, limits, file permissions and default paths that should
// be consistent across the CLI, the HTTP server and the library client.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// RegistryFetchTimeout bounds one HTTP request for a remote registry
	RegistryFetchTimeout = 30 * time.Second

	// AnalysisTimeout bounds a single analysis pass including both fetches
	AnalysisTimeout = 2 * time.Minute

	// BulkActionTimeout bounds a whole bulk review request
	BulkActionTimeout = 5 * time.Minute

	// DefaultRefreshInterval is the default interval between automatic re-analysis
	DefaultRefreshInterval = 15 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout is how long the server waits for in-flight requests
	ShutdownTimeout = 15 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxBulkItems is the largest number of IDs accepted in one bulk request
	MaxBulkItems = 1000

	// MaxRequestBodyBytes caps JSON request bodies on the HTTP API
	MaxRequestBodyBytes = 1 << 20

	// ChannelBufferSize is the default buffer size for event channels
	ChannelBufferSize = 100
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached analysis responses
	CacheTTL = 5 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 10 * time.Minute
)

// Path constants
const (
	// DefaultConfigPath is the default path for configuration files
	DefaultConfigPath = "~/.featurereg/config.yaml"

	// DefaultDatabasePath is the default SQLite database file
	DefaultDatabasePath = "~/.featurereg/features.db"
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)
