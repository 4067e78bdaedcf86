package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSQLiteDSN(t *testing.T) {
	require.Equal(t, "file:/tmp/x.db?mode=rwc", normalizeSQLiteDSN("/tmp/x.db"))
	require.Equal(t, "file::memory:?cache=shared", normalizeSQLiteDSN(":memory:"))
	require.Equal(t, "file:custom?mode=ro", normalizeSQLiteDSN("file:custom?mode=ro"))
}

func TestInitDBWithPath_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "agentflow.db")
	db, err := InitDBWithPath(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)

	// Migrations ran: the core tables exist.
	for _, table := range []string{"agents", "tasks", "agent_logs", "idempotency"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestRetryWithBackoff_PermanentErrorFailsFast(t *testing.T) {
	boom := errors.New("constraint violated")
	calls := 0
	err := RetryWithBackoff(func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestRetryWithBackoff_RetriesBusy(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}
