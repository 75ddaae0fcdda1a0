// ABOUTME: database/sql driver registration for the SQLite store
// ABOUTME: Registers both the pure-Go modernc driver and the cgo mattn driver

package store

import (
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by WithDriver
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverCgo     = "sqlite3" // github.com/mattn/go-sqlite3, requires cgo
)

// KnownDriver reports whether name is a supported driver.
func KnownDriver(name string) bool {
	return name == DriverModernc || name == DriverCgo
}
