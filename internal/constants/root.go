package constants

import "time"

const (
	AppName            = "daylog"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/daylog"
	DefaultStorePath   = "~/.config/daylog/daylog.db"
	DefaultConfigFile  = "config.yaml"
	Version            = "v0.2.0"

	// DateFormat is the canonical wire and storage format for log dates (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MonthFormat identifies a calendar month (YYYY-MM)
	MonthFormat = "2006-01"

	// TimeFormat is the suggested time-of-day format (HH:MM). Start and end
	// times are stored as given and never parsed.
	TimeFormat = "15:04"

	// Server defaults
	DefaultAddr          = "127.0.0.1:5001"
	DefaultBasePath      = "/api/logs"
	DefaultAllowedOrigin = "*"
	DefaultReadTimeout   = 10 * time.Second
	DefaultWriteTimeout  = 10 * time.Second
	DefaultClientTimeout = 10 * time.Second
	MaxRequestBodyBytes  = 1 << 20
	ShutdownGracePeriod  = 5 * time.Second

	// ServerLockfileName is written by `daylog serve` as "addr|pid"
	ServerLockfileName = "daylog-server.lock"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "daylog-"
	BackupFileSuffix = ".db"

	// Store backends
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"

	// KeyringStore is the --store value that reads the connection string from the OS keyring
	KeyringStore = "keyring"

	// Mongo layout
	MongoDatabase   = "daylog"
	MongoCollection = "logs"

	// Response messages
	MsgLogDeleted  = "Log deleted successfully"
	MsgLogNotFound = "Log not found"
	MsgServerError = "Server error"
)
