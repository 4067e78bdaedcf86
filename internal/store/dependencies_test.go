package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agentflow/internal/models"
)

func TestClaimDependency_Transition(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createTestDependency(t, db, agent.ID, "confirm budget", models.PriorityMedium)

	var claimed *models.Task
	var transitioned bool
	err := Transact(db, func(tx *sql.Tx) error {
		var txErr error
		claimed, transitioned, txErr = ClaimDependencyTx(tx, dep.ID)
		return txErr
	})
	require.NoError(t, err)
	require.True(t, transitioned)
	require.Equal(t, models.TaskStatusInProgress, claimed.Status)
	require.Equal(t, models.WorkflowUserWorking, claimed.Workflow)
	require.True(t, claimed.MovedToTasks)
	require.Equal(t, dep.Version+1, claimed.Version)
	// The reason the task was blocked stays on the row for history.
	require.Equal(t, "needs human input", claimed.BlockedReason)
}

func TestClaimDependency_ReclaimIsNoop(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createTestDependency(t, db, agent.ID, "confirm budget", models.PriorityMedium)
	claimTestDependency(t, db, dep.ID)

	var task *models.Task
	var transitioned bool
	err := Transact(db, func(tx *sql.Tx) error {
		var txErr error
		task, transitioned, txErr = ClaimDependencyTx(tx, dep.ID)
		return txErr
	})
	require.NoError(t, err)
	require.False(t, transitioned)
	require.Equal(t, models.WorkflowUserWorking, task.Workflow)
	// No version bump on a no-op.
	require.Equal(t, dep.Version+1, task.Version)
}

func TestClaimDependency_AfterResolveFails(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createTestDependency(t, db, agent.ID, "confirm budget", models.PriorityMedium)
	resolveTestDependency(t, db, dep.ID)

	err := Transact(db, func(tx *sql.Tx) error {
		_, _, txErr := ClaimDependencyTx(tx, dep.ID)
		return txErr
	})
	// A resolved dependency has left the pending set; claiming it reports
	// a missing dependency rather than a transition error.
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "dependency", nf.Entity)
	require.Equal(t, dep.ID, nf.ID)
}

func TestClaimDependency_NonDependencyNotFound(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	task := createTestTask(t, db, NewTaskParams{AgentID: agent.ID, Title: "plain"})

	err := Transact(db, func(tx *sql.Tx) error {
		_, _, txErr := ClaimDependencyTx(tx, task.ID)
		return txErr
	})
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "dependency", nf.Entity)
}

func TestResolveDependency_FromPending(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createTestDependency(t, db, agent.ID, "confirm budget", models.PriorityMedium)

	var resolved *models.Task
	var transitioned bool
	err := Transact(db, func(tx *sql.Tx) error {
		var txErr error
		resolved, transitioned, txErr = ResolveDependencyTx(tx, dep.ID)
		return txErr
	})
	require.NoError(t, err)
	require.True(t, transitioned)
	require.Equal(t, models.TaskStatusDone, resolved.Status)
	require.Equal(t, models.WorkflowCompleted, resolved.Workflow)
	require.True(t, resolved.InHistory)
	require.True(t, resolved.IsResolvedDependency())
}

func TestResolveDependency_FromClaimed(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createTestDependency(t, db, agent.ID, "confirm budget", models.PriorityMedium)
	claimTestDependency(t, db, dep.ID)

	resolved := resolveTestDependency(t, db, dep.ID)
	require.Equal(t, models.TaskStatusDone, resolved.Status)
	require.Equal(t, models.WorkflowCompleted, resolved.Workflow)
	require.True(t, resolved.MovedToTasks)
	require.True(t, resolved.InHistory)
}

func TestResolveDependency_ReresolveIsNoop(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createTestDependency(t, db, agent.ID, "confirm budget", models.PriorityMedium)
	resolved := resolveTestDependency(t, db, dep.ID)

	var task *models.Task
	var transitioned bool
	err := Transact(db, func(tx *sql.Tx) error {
		var txErr error
		task, transitioned, txErr = ResolveDependencyTx(tx, dep.ID)
		return txErr
	})
	require.NoError(t, err)
	require.False(t, transitioned)
	require.Equal(t, resolved.Version, task.Version)
}

func TestClaimDependency_StaleVersionConflicts(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createTestDependency(t, db, agent.ID, "confirm budget", models.PriorityMedium)

	// Another writer bumps the version between our read and our update.
	tx, err := db.Begin()
	require.NoError(t, err)
	current, err := getDependencyTx(tx, dep.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	_, err = db.Exec(`UPDATE tasks SET version = version + 1 WHERE id = ?`, dep.ID)
	require.NoError(t, err)

	res, err := db.Exec(`
		UPDATE tasks SET status = 'in_progress', version = version + 1
		WHERE id = ? AND version = ?
	`, dep.ID, current.Version)
	require.NoError(t, err)
	err = requireOneRow(res, "task", dep.ID, current.Version)
	require.True(t, IsVersionConflict(err))
	var vce *VersionConflictError
	require.ErrorAs(t, err, &vce)
	require.Equal(t, dep.ID, vce.ID)
}

func TestPendingDependencies_OrderingAndExclusions(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	low := createTestDependency(t, db, agent.ID, "low prio", models.PriorityLow)
	urgent := createTestDependency(t, db, agent.ID, "urgent one", models.PriorityUrgent)
	high := createTestDependency(t, db, agent.ID, "high one", models.PriorityHigh)
	claimed := createTestDependency(t, db, agent.ID, "claimed one", models.PriorityUrgent)
	claimTestDependency(t, db, claimed.ID)
	resolved := createTestDependency(t, db, agent.ID, "resolved one", models.PriorityMedium)
	resolveTestDependency(t, db, resolved.ID)
	// Plain tasks never show up as dependencies.
	createTestTask(t, db, NewTaskParams{AgentID: agent.ID, Title: "plain"})

	pending, err := PendingDependencies(db, agent.ID)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	require.Equal(t, urgent.ID, pending[0].ID)
	require.Equal(t, high.ID, pending[1].ID)
	require.Equal(t, low.ID, pending[2].ID)
}

func TestCompletedDependencies(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	a := createTestDependency(t, db, agent.ID, "a", models.PriorityMedium)
	b := createTestDependency(t, db, agent.ID, "b", models.PriorityMedium)
	resolveTestDependency(t, db, a.ID)
	resolveTestDependency(t, db, b.ID)
	createTestDependency(t, db, agent.ID, "still pending", models.PriorityMedium)

	completed, err := CompletedDependencies(db, agent.ID)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	for _, dep := range completed {
		require.True(t, dep.IsResolvedDependency())
	}
}

func TestGetDependencyCounts(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	createTestDependency(t, db, agent.ID, "pending low", models.PriorityLow)
	createTestDependency(t, db, agent.ID, "pending urgent", models.PriorityUrgent)
	createTestDependency(t, db, agent.ID, "pending high", models.PriorityHigh)
	resolved := createTestDependency(t, db, agent.ID, "resolved", models.PriorityMedium)
	resolveTestDependency(t, db, resolved.ID)
	claimed := createTestDependency(t, db, agent.ID, "claimed", models.PriorityMedium)
	claimTestDependency(t, db, claimed.ID)

	counts, err := GetDependencyCounts(db, agent.ID)
	require.NoError(t, err)
	require.Equal(t, 3, counts.Pending)
	require.Equal(t, 2, counts.Urgent)
	require.Equal(t, 1, counts.Completed)
	require.Equal(t, 0, counts.ActiveUserTasks)
}
