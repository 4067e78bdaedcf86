package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agentflow/internal/models"
)

// setupTestDB opens a migrated database in a per-test temp dir. File-backed
// rather than :memory: so WAL and busy_timeout behave as they do in
// production.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDBWithPath(filepath.Join(t.TempDir(), "agentflow_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestAgent(t *testing.T, db *sql.DB, ownerID string) *models.Agent {
	t.Helper()
	var agent *models.Agent
	err := Transact(db, func(tx *sql.Tx) error {
		var txErr error
		agent, txErr = CreateAgentTx(tx, ownerID, "test agent", "ship the feature", "", "")
		return txErr
	})
	require.NoError(t, err)
	return agent
}

func createTestTask(t *testing.T, db *sql.DB, p NewTaskParams) *models.Task {
	t.Helper()
	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		var txErr error
		task, txErr = CreateTaskTx(tx, p)
		return txErr
	})
	require.NoError(t, err)
	return task
}

func createTestDependency(t *testing.T, db *sql.DB, agentID, title string, priority models.Priority) *models.Task {
	t.Helper()
	return createTestTask(t, db, NewTaskParams{
		AgentID:       agentID,
		Title:         title,
		Priority:      priority,
		IsDependency:  true,
		BlockedReason: "needs human input",
	})
}

func claimTestDependency(t *testing.T, db *sql.DB, taskID string) *models.Task {
	t.Helper()
	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		var txErr error
		task, _, txErr = ClaimDependencyTx(tx, taskID)
		return txErr
	})
	require.NoError(t, err)
	return task
}

func resolveTestDependency(t *testing.T, db *sql.DB, taskID string) *models.Task {
	t.Helper()
	var task *models.Task
	err := Transact(db, func(tx *sql.Tx) error {
		var txErr error
		task, _, txErr = ResolveDependencyTx(tx, taskID)
		return txErr
	})
	require.NoError(t, err)
	return task
}
