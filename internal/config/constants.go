package config

const (
	// DefaultDatabasePath is where the SQLite database lives unless
	// DATABASE_PATH overrides it.
	DefaultDatabasePath = "./inkshelf.db"

	// DefaultMaxDownloads is the per-purchase download quota stamped
	// onto new purchases.
	DefaultMaxDownloads = 3

	// DefaultDownloadWindowHours is the download window length stamped
	// onto new purchases. The expiry derived from it is frozen at
	// purchase time.
	DefaultDownloadWindowHours = 24
)
