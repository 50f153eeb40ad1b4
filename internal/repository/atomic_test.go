package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyOnWriteTx_NewDataDir(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), ".qakit")

	tx := NewCopyOnWriteTx(baseDir)
	require.NoError(t, tx.Begin())

	_, err := os.Stat(filepath.Join(tx.TempDir(), suitesDir))
	require.NoError(t, err, "staging layout should exist")

	require.NoError(t, tx.WriteFile("suites/SUITE-a.yaml", []byte("id: SUITE-a\n")))
	require.NoError(t, tx.Commit())

	data, err := os.ReadFile(filepath.Join(baseDir, "suites", "SUITE-a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "id: SUITE-a\n", string(data))

	_, err = os.Stat(tx.TempDir())
	assert.True(t, os.IsNotExist(err), "staging directory should be gone")
}

func TestCopyOnWriteTx_ExistingDataDir(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), ".qakit")
	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "suites"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "changelog.yaml"), []byte("events: []\n"), 0o644))

	tx := NewCopyOnWriteTx(baseDir)
	require.NoError(t, tx.Begin())

	copied, err := tx.ReadFile("changelog.yaml")
	require.NoError(t, err)
	assert.Equal(t, "events: []\n", string(copied))

	require.NoError(t, tx.WriteFile("changelog.yaml", []byte("events: [x]\n")))

	live, err := os.ReadFile(filepath.Join(baseDir, "changelog.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "events: []\n", string(live), "live directory must not change before commit")

	require.NoError(t, tx.Commit())

	live, err = os.ReadFile(filepath.Join(baseDir, "changelog.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "events: [x]\n", string(live))
}

func TestCopyOnWriteTx_Rollback(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), ".qakit")
	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "suites"), 0o755))
	path := filepath.Join(baseDir, "suites", "SUITE-a.yaml")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	tx := NewCopyOnWriteTx(baseDir)
	require.NoError(t, tx.Begin())
	require.NoError(t, tx.RemoveFile("suites/SUITE-a.yaml"))
	require.NoError(t, tx.Rollback())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	_, err = os.Stat(tx.TempDir())
	assert.True(t, os.IsNotExist(err))
}

func TestCopyOnWriteTx_CommittedTransactionIsClosed(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), ".qakit")

	tx := NewCopyOnWriteTx(baseDir)
	require.NoError(t, tx.Begin())
	require.NoError(t, tx.Commit())

	assert.Error(t, tx.Commit())
	assert.Error(t, tx.Rollback())
	assert.Error(t, tx.WriteFile("x", []byte("y")))
	assert.Error(t, tx.RemoveFile("x"))
}

func TestCopyOnWriteTx_PreservesPermissions(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), ".qakit")
	require.NoError(t, os.MkdirAll(baseDir, 0o755))
	path := filepath.Join(baseDir, "private.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	tx := NewCopyOnWriteTx(baseDir)
	require.NoError(t, tx.Begin())

	info, err := os.Stat(filepath.Join(tx.TempDir(), "private.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	require.NoError(t, tx.Rollback())
}
