package genlog

import (
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase opens the audit database for the configured DSN. DSNs using
// the sqlite file: scheme (including in-memory ones) open through the
// embedded cgo-free driver; anything else is treated as a postgres DSN. An
// empty DSN falls back to a shared in-memory database, useful for local
// runs without infrastructure.
func OpenDatabase(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return gorm.Open(sqlite.Open(dsn), cfg)
	}
	return gorm.Open(postgres.Open(dsn), cfg)
}
