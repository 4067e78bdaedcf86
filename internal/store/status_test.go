package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agentflow/internal/models"
)

func TestGetStatusCounts(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	createTestTask(t, db, NewTaskParams{AgentID: agent.ID, Title: "todo one"})
	createTestTask(t, db, NewTaskParams{AgentID: agent.ID, Title: "todo two"})
	dep := createTestDependency(t, db, agent.ID, "pending dep", models.PriorityUrgent)
	resolved := createTestDependency(t, db, agent.ID, "resolved dep", models.PriorityMedium)
	resolveTestDependency(t, db, resolved.ID)
	_ = dep

	for i := 0; i < 3; i++ {
		_, err := AppendLog(db, AppendLogParams{AgentID: agent.ID, LogType: models.LogTypeInfo, Message: "info"})
		require.NoError(t, err)
	}

	counts, err := GetStatusCounts(db, agent.ID)
	require.NoError(t, err)
	require.Equal(t, 2, counts.Tasks.Todo)
	require.Equal(t, 1, counts.Tasks.Blocked)
	require.Equal(t, 1, counts.Tasks.Done)
	require.Equal(t, 0, counts.Tasks.InProgress)
	require.Equal(t, 1, counts.Dependencies.Pending)
	require.Equal(t, 1, counts.Dependencies.Urgent)
	require.Equal(t, 1, counts.Dependencies.Completed)
	require.Equal(t, 3, counts.Logs)
}

func TestSchemaVersion_UpToDateAfterInit(t *testing.T) {
	db := setupTestDB(t)

	current, latest, err := SchemaVersion(db)
	require.NoError(t, err)
	require.Equal(t, latest, current)
	require.GreaterOrEqual(t, latest, int64(2))
}
