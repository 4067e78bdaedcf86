package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdempotency_BeginCompleteReplay(t *testing.T) {
	db := setupTestDB(t)

	user := "user_1"
	requestID := "req_1"
	command := "unit.test"
	result := `{"ok":true}`

	tx, err := db.Begin()
	require.NoError(t, err)
	_, done, err := beginIdempotencyTx(tx, user, requestID, command)
	require.NoError(t, err)
	require.False(t, done)
	require.NoError(t, completeIdempotencyTx(tx, user, requestID, result))
	require.NoError(t, tx.Commit())

	tx2, err := db.Begin()
	require.NoError(t, err)
	existing, done, err := beginIdempotencyTx(tx2, user, requestID, command)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, result, existing)
	require.NoError(t, tx2.Rollback())
}

func TestIdempotency_CommandCollision(t *testing.T) {
	db := setupTestDB(t)

	tx, err := db.Begin()
	require.NoError(t, err)
	_, done, err := beginIdempotencyTx(tx, "user_1", "req_1", "task.create")
	require.NoError(t, err)
	require.False(t, done)
	require.NoError(t, completeIdempotencyTx(tx, "user_1", "req_1", `{}`))
	require.NoError(t, tx.Commit())

	tx2, err := db.Begin()
	require.NoError(t, err)
	_, _, err = beginIdempotencyTx(tx2, "user_1", "req_1", "dependency.claim")
	require.Error(t, err)
	require.Contains(t, err.Error(), "collision")
	require.NoError(t, tx2.Rollback())
}

func TestIdempotency_InProgressIsRetryable(t *testing.T) {
	db := setupTestDB(t)

	// Simulate a broken writer that committed an empty result_json row.
	_, err := db.Exec(`INSERT INTO idempotency (user_id, request_id, command, result_json) VALUES (?, ?, ?, '')`,
		"user_1", "req_inflight", "unit.inflight")
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)
	_, done, err := beginIdempotencyTx(tx, "user_1", "req_inflight", "unit.inflight")
	require.Error(t, err)
	require.False(t, done)
	require.ErrorIs(t, err, ErrIdempotencyInProgress)
	require.NoError(t, tx.Rollback())

	require.True(t, isRetryableError(err))
}

func TestIdempotency_ScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	type result struct {
		TaskID string `json:"task_id"`
	}

	op := func(tx *sql.Tx) (result, error) {
		task, err := CreateTaskTx(tx, NewTaskParams{AgentID: agent.ID, Title: "scoped"})
		if err != nil {
			return result{}, err
		}
		return result{TaskID: task.ID}, nil
	}

	first, err := RunIdempotent(db, "user_1", "req_shared", "task.create", op)
	require.NoError(t, err)
	second, err := RunIdempotent(db, "user_2", "req_shared", "task.create", op)
	require.NoError(t, err)

	// Same request id, different users: two distinct inserts.
	require.NotEqual(t, first.TaskID, second.TaskID)
}

func TestRunIdempotent_ReplaySkipsOperation(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	type result struct {
		TaskID string `json:"task_id"`
	}

	calls := 0
	op := func(tx *sql.Tx) (result, error) {
		calls++
		task, err := CreateTaskTx(tx, NewTaskParams{AgentID: agent.ID, Title: "idempotent"})
		if err != nil {
			return result{}, err
		}
		return result{TaskID: task.ID}, nil
	}

	first, err := RunIdempotent(db, "user_1", "req_replay", "task.create", op)
	require.NoError(t, err)
	second, err := RunIdempotent(db, "user_1", "req_replay", "task.create", op)
	require.NoError(t, err)

	require.Equal(t, 1, calls)
	require.Equal(t, first.TaskID, second.TaskID)

	tasks, err := ListTasks(db, agent.ID, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestRunIdempotent_FailedOperationLeavesNoRecord(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	boom := errors.New("op failed")
	_, err := RunIdempotent(db, "user_1", "req_fail", "task.create", func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, boom
	})
	require.ErrorIs(t, err, boom)

	// The failed attempt rolled back; a retry with the same id runs fresh.
	type result struct {
		TaskID string `json:"task_id"`
	}
	r, err := RunIdempotent(db, "user_1", "req_fail", "task.create", func(tx *sql.Tx) (result, error) {
		task, err := CreateTaskTx(tx, NewTaskParams{AgentID: agent.ID, Title: "retried"})
		if err != nil {
			return result{}, err
		}
		return result{TaskID: task.ID}, nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, r.TaskID)
}

func TestRunIdempotentWithRetry_RetriesOnVersionConflict(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")
	dep := createTestDependency(t, db, agent.ID, "contended", "medium")

	attempts := 0
	result, replayed, err := RunIdempotentWithRetry(db, "user_1", "req_retry", "dependency.claim",
		3, IsVersionConflict,
		func(tx *sql.Tx) (string, error) {
			attempts++
			if attempts == 1 {
				return "", &VersionConflictError{Entity: "task", ID: dep.ID, Version: 1}
			}
			claimed, _, err := ClaimDependencyTx(tx, dep.ID)
			if err != nil {
				return "", err
			}
			return claimed.ID, nil
		})
	require.NoError(t, err)
	require.False(t, replayed)
	require.Equal(t, 2, attempts)
	require.Equal(t, dep.ID, result)
}
