package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dotcommander/agentflow/internal/models"
)

// Dependency lifecycle writes. All transitions are CAS on the task version:
// a concurrent writer that raced us gets VersionConflictError instead of
// silently winning.
//
// blocked_reason is written at creation and kept for the life of the row; it
// records what the human was asked for even after resolution.

// getDependencyTx loads a task and verifies it is a dependency. A task that
// exists but is not a dependency is reported as a missing dependency, not a
// type error: callers asked for a dependency and there isn't one by that id.
func getDependencyTx(tx *sql.Tx, taskID string) (*models.Task, error) {
	task, err := getTaskTx(tx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsDependency {
		return nil, &models.NotFoundError{Entity: "dependency", ID: taskID}
	}
	return task, nil
}

// ClaimDependencyTx moves a pending dependency to user_working:
// status=in_progress, workflow_status=user_working, moved_to_tasks set.
// Re-claiming an already-claimed dependency is a no-op success
// (transitioned=false). A resolved dependency is no longer claimable and is
// reported as not found: it has left the pending set.
func ClaimDependencyTx(tx *sql.Tx, taskID string) (task *models.Task, transitioned bool, err error) {
	current, err := getDependencyTx(tx, taskID)
	if err != nil {
		return nil, false, err
	}

	if current.IsResolvedDependency() || current.Status == models.TaskStatusDone {
		return nil, false, &models.NotFoundError{Entity: "dependency", ID: taskID}
	}
	if current.Workflow == models.WorkflowUserWorking {
		// Same-state re-claim: the desired end state already holds.
		return current, false, nil
	}
	if !current.Workflow.CanTransitionTo(models.WorkflowUserWorking) {
		return nil, false, &models.InvalidTransitionError{
			TaskID: taskID,
			From:   current.Workflow,
			To:     models.WorkflowUserWorking,
		}
	}

	result, err := tx.ExecContext(context.Background(), `
		UPDATE tasks
		SET status = ?, workflow_status = ?, moved_to_tasks = 1,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`, models.TaskStatusInProgress, models.WorkflowUserWorking, taskID, current.Version)
	if err != nil {
		return nil, false, fmt.Errorf("failed to claim dependency: %w", err)
	}
	if err := requireOneRow(result, "task", taskID, current.Version); err != nil {
		return nil, false, err
	}

	updated, err := getTaskTx(tx, taskID)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// ResolveDependencyTx moves a dependency to completed: status=done,
// workflow_status=completed, in_history set. Resolving an already-resolved
// dependency is a no-op success (transitioned=false). Resolution is allowed
// straight from pending; a human can answer a question nobody claimed.
func ResolveDependencyTx(tx *sql.Tx, taskID string) (task *models.Task, transitioned bool, err error) {
	current, err := getDependencyTx(tx, taskID)
	if err != nil {
		return nil, false, err
	}

	if current.IsResolvedDependency() {
		return current, false, nil
	}

	result, err := tx.ExecContext(context.Background(), `
		UPDATE tasks
		SET status = ?, workflow_status = ?, in_history = 1,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`, models.TaskStatusDone, models.WorkflowCompleted, taskID, current.Version)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve dependency: %w", err)
	}
	if err := requireOneRow(result, "task", taskID, current.Version); err != nil {
		return nil, false, err
	}

	updated, err := getTaskTx(tx, taskID)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func requireOneRow(result sql.Result, entity, id string, version int) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &VersionConflictError{Entity: entity, ID: id, Version: version}
	}
	return nil
}

// Read-side projections. These are recomputed on every call, never cached:
// the agent can mutate tasks concurrently with human action, so a stale
// snapshot here would show a dependency as pending after it was claimed.

const pendingDependencyClause = `is_dependency = 1
	  AND status != 'done'
	  AND workflow_status != 'completed'
	  AND moved_to_tasks = 0`

const completedDependencyClause = `is_dependency = 1
	  AND status = 'done'
	  AND (workflow_status = 'completed' OR in_history = 1)`

// PendingDependencies returns the dependencies still waiting for a human,
// urgent first, then oldest first.
func PendingDependencies(db *sql.DB, agentID string) ([]*models.Task, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT `+taskColumns+` FROM tasks
		WHERE agent_id = ? AND `+pendingDependencyClause+`
		ORDER BY CASE priority
			WHEN 'urgent' THEN 0
			WHEN 'high' THEN 1
			WHEN 'medium' THEN 2
			ELSE 3
		END, created_at ASC
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending dependencies: %w", err)
	}
	return scanTaskRows(rows)
}

// CompletedDependencies returns resolved dependencies, newest first.
func CompletedDependencies(db *sql.DB, agentID string) ([]*models.Task, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT `+taskColumns+` FROM tasks
		WHERE agent_id = ? AND `+completedDependencyClause+`
		ORDER BY updated_at DESC, id DESC
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed dependencies: %w", err)
	}
	return scanTaskRows(rows)
}

// DependencyCounts is the dashboard rollup for one agent.
type DependencyCounts struct {
	Pending         int `json:"pending"`
	Urgent          int `json:"urgent"`
	Completed       int `json:"completed"`
	ActiveUserTasks int `json:"active_user_tasks"`
}

// GetDependencyCounts computes all projection counts in one query.
func GetDependencyCounts(db *sql.DB, agentID string) (*DependencyCounts, error) {
	counts := &DependencyCounts{}
	err := RetryWithBackoff(func() error {
		return db.QueryRowContext(context.Background(), `
			SELECT
				COALESCE(SUM(CASE WHEN `+pendingDependencyClause+` THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN `+pendingDependencyClause+`
					AND priority IN ('urgent', 'high') THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN `+completedDependencyClause+` THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN is_dependency = 0
					AND status = 'in_progress'
					AND moved_to_tasks = 1
					AND workflow_status = 'user_working' THEN 1 ELSE 0 END), 0)
			FROM tasks WHERE agent_id = ?
		`, agentID).Scan(
			&counts.Pending,
			&counts.Urgent,
			&counts.Completed,
			&counts.ActiveUserTasks,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute dependency counts: %w", err)
	}
	return counts, nil
}
