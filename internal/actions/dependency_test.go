package actions

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/store"
)

func createDep(t *testing.T, db *sql.DB, agentID, userID, requestID string) *models.Task {
	t.Helper()
	dep, err := CreateDependencyIdempotent(db, userID, requestID, CreateDependencyParams{
		AgentID:       agentID,
		Title:         "confirm budget",
		BlockedReason: "need sign-off from finance",
		Priority:      models.PriorityHigh,
	})
	require.NoError(t, err)
	return dep
}

func TestCreateDependency_WritesTaskAndLog(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	dep, err := CreateDependencyIdempotent(db, "user_1", "req_1", CreateDependencyParams{
		AgentID:       agent.ID,
		Title:         "confirm budget",
		BlockedReason: "need sign-off from finance",
		Priority:      models.PriorityHigh,
	})
	require.NoError(t, err)
	require.True(t, dep.IsDependency)
	require.Equal(t, models.TaskStatusBlocked, dep.Status)
	require.Equal(t, models.WorkflowPending, dep.Workflow)
	require.Equal(t, "need sign-off from finance", dep.BlockedReason)

	logs, err := store.ListLogs(db, agent.ID, models.LogTypeDependency, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Contains(t, logs[0].Message, "confirm budget")
	require.Equal(t, dep.ID, logs[0].TaskID)
}

func TestCreateDependency_ReplayedRequestCreatesOneRow(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	p := CreateDependencyParams{
		AgentID:       agent.ID,
		Title:         "confirm budget",
		BlockedReason: "need sign-off",
	}
	first, err := CreateDependencyIdempotent(db, "user_1", "req_dup", p)
	require.NoError(t, err)
	second, err := CreateDependencyIdempotent(db, "user_1", "req_dup", p)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	tasks, err := store.ListTasks(db, agent.ID, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	logs, err := store.ListLogs(db, agent.ID, models.LogTypeDependency, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestCreateDependency_RequiresReason(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	_, err := CreateDependencyIdempotent(db, "user_1", "req_1", CreateDependencyParams{
		AgentID: agent.ID,
		Title:   "confirm budget",
	})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "blocked_reason", ve.Field)
}

func TestClaimDependency_TransitionAndLog(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createDep(t, db, agent.ID, "user_1", "req_create")

	result, err := ClaimDependency(db, "user_1", "req_claim", dep.ID)
	require.NoError(t, err)
	require.True(t, result.Transitioned)
	require.Equal(t, models.TaskStatusInProgress, result.Task.Status)
	require.Equal(t, models.WorkflowUserWorking, result.Task.Workflow)
	require.True(t, result.Task.MovedToTasks)

	logs, err := store.ListLogs(db, agent.ID, models.LogTypeTaskUpdate, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Contains(t, logs[0].Message, "claimed")
}

func TestClaimDependency_ReclaimIsNoopWithoutLog(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createDep(t, db, agent.ID, "user_1", "req_create")

	_, err := ClaimDependency(db, "user_1", "req_claim_1", dep.ID)
	require.NoError(t, err)

	// Fresh request id: a genuine re-claim, not an idempotent replay.
	result, err := ClaimDependency(db, "user_1", "req_claim_2", dep.ID)
	require.NoError(t, err)
	require.False(t, result.Transitioned)
	require.Equal(t, models.WorkflowUserWorking, result.Task.Workflow)

	logs, err := store.ListLogs(db, agent.ID, models.LogTypeTaskUpdate, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestClaimDependency_SameRequestReplays(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createDep(t, db, agent.ID, "user_1", "req_create")

	first, err := ClaimDependency(db, "user_1", "req_claim", dep.ID)
	require.NoError(t, err)
	require.True(t, first.Transitioned)

	second, err := ClaimDependency(db, "user_1", "req_claim", dep.ID)
	require.NoError(t, err)
	// The replay returns the original outcome verbatim.
	require.True(t, second.Transitioned)
	require.Equal(t, first.Task.Version, second.Task.Version)
}

func TestClaimDependency_AfterResolveFails(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createDep(t, db, agent.ID, "user_1", "req_create")

	_, err := ResolveDependency(db, "user_1", "req_resolve", dep.ID)
	require.NoError(t, err)

	_, err = ClaimDependency(db, "user_1", "req_claim", dep.ID)
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "dependency", nf.Entity)
}

func TestResolveDependency_FromPendingAndIdempotent(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createDep(t, db, agent.ID, "user_1", "req_create")

	result, err := ResolveDependency(db, "user_1", "req_resolve_1", dep.ID)
	require.NoError(t, err)
	require.True(t, result.Transitioned)
	require.Equal(t, models.TaskStatusDone, result.Task.Status)
	require.True(t, result.Task.InHistory)

	// Re-resolving with a new request id is a no-op success.
	again, err := ResolveDependency(db, "user_1", "req_resolve_2", dep.ID)
	require.NoError(t, err)
	require.False(t, again.Transitioned)

	logs, err := store.ListLogs(db, agent.ID, models.LogTypeDependency, 0)
	require.NoError(t, err)
	// One entry for creation, one for the actual resolution.
	require.Len(t, logs, 2)
}

func TestDependencyOps_EnforceOwnership(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createDep(t, db, agent.ID, "user_1", "req_create")

	var pd *models.PermissionDeniedError

	_, err := ClaimDependency(db, "intruder", "req_x", dep.ID)
	require.ErrorAs(t, err, &pd)

	_, err = ResolveDependency(db, "intruder", "req_y", dep.ID)
	require.ErrorAs(t, err, &pd)

	_, err = PendingDependencies(db, agent.ID, "intruder")
	require.ErrorAs(t, err, &pd)

	_, err = CreateDependencyIdempotent(db, "intruder", "req_z", CreateDependencyParams{
		AgentID:       agent.ID,
		Title:         "sneak",
		BlockedReason: "because",
	})
	require.ErrorAs(t, err, &pd)
}

func TestPendingAndCompletedDependencies(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	a := createDep(t, db, agent.ID, "user_1", "req_a")
	b := createDep(t, db, agent.ID, "user_1", "req_b")
	_, err := ResolveDependency(db, "user_1", "req_resolve", b.ID)
	require.NoError(t, err)

	pending, err := PendingDependencies(db, agent.ID, "user_1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, a.ID, pending[0].ID)

	completed, err := CompletedDependencies(db, agent.ID, "user_1")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, b.ID, completed[0].ID)
}
