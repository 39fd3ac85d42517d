package sqlstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "twominute.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "tasks"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, table, name)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "dir", "twominute.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twominute.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
