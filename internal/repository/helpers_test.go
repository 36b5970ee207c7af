package repository

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupSQLite opens a private in-memory database with every table migrated.
func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(":memory:", discardLogger())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}
