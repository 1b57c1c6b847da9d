package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs("migrations")
	require.NoError(t, err)
	return dir
}

func TestOpenMigratedCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "attempts.db")
	db, err := OpenMigrated(path, migrationsDir(t))
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM attempts`).Scan(&n))
	require.Zero(t, n)

	// second run is a no-op
	require.NoError(t, Migrate(db, migrationsDir(t)))
}

func TestRunMigrationsByPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempts.db")
	require.NoError(t, RunMigrations(path, migrationsDir(t)))
	require.NoError(t, RunMigrations(path, migrationsDir(t)))

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='attempts'`).Scan(&name))
	require.Equal(t, "attempts", name)
}

func TestOpenMigratedBadDir(t *testing.T) {
	_, err := OpenMigrated(filepath.Join(t.TempDir(), "a.db"), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
