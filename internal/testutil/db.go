// Package testutil provides test utilities for database setup.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/langarchive/catalog/internal/store/sqlite"
)

// NewTestDB creates a migrated catalog database in a temporary directory.
// It is closed when the test ends.
func NewTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTestStore returns a store over a fresh test database.
func NewTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	return sqlite.NewStore(NewTestDB(t))
}
