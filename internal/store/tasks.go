package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dotcommander/agentflow/internal/models"
)

// NewTaskParams holds the inputs for a task insert. BlockedReason is only
// honored for dependency rows; plain tasks are created unblocked.
type NewTaskParams struct {
	AgentID       string
	Title         string
	Description   string
	Priority      models.Priority
	IsDependency  bool
	BlockedReason string
	AutoGenerated bool
	Metadata      json.RawMessage
	Position      int
}

// CreateTaskTx inserts and returns a task inside an existing transaction.
// Dependency rows start blocked with workflow state pending; plain rows
// start todo. Version starts at 1.
func CreateTaskTx(tx *sql.Tx, p NewTaskParams) (*models.Task, error) {
	if p.AgentID == "" {
		return nil, errors.New("agent id is required")
	}
	if p.Title == "" {
		return nil, errors.New("task title is required")
	}
	if p.IsDependency && p.BlockedReason == "" {
		return nil, errors.New("blocked reason is required for a dependency")
	}

	status := models.TaskStatusTodo
	workflow := models.WorkflowNone
	if p.IsDependency {
		status = models.TaskStatusBlocked
		workflow = models.WorkflowPending
	}
	priority := models.NormalizePriority(p.Priority, models.PriorityMedium)

	taskID := generateTaskID()
	var descVal, reasonVal, metaVal any
	if p.Description != "" {
		descVal = p.Description
	}
	if p.IsDependency {
		reasonVal = p.BlockedReason
	}
	if len(p.Metadata) > 0 {
		if !json.Valid(p.Metadata) {
			return nil, errors.New("task metadata must be valid JSON")
		}
		metaVal = string(p.Metadata)
	}

	result, err := tx.ExecContext(context.Background(), `
		INSERT INTO tasks (id, agent_id, title, description, status, priority,
			is_dependency, blocked_reason, auto_generated, workflow_status,
			moved_to_tasks, in_history, metadata, position, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, taskID, p.AgentID, p.Title, descVal, status, priority,
		p.IsDependency, reasonVal, p.AutoGenerated, workflow, metaVal, p.Position)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, errors.New("failed to insert task: no rows affected")
	}

	row := tx.QueryRowContext(context.Background(), `
		SELECT `+taskColumns+` FROM tasks WHERE id = ?
	`, taskID)

	task, err := scanTaskRow(row)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created task: %w", err)
	}

	return task, nil
}

// GetTask retrieves a task by ID. Returns models.NotFoundError when absent.
func GetTask(db *sql.DB, taskID string) (*models.Task, error) {
	return getTaskByQuerier(db, taskID)
}

func getTaskTx(tx *sql.Tx, taskID string) (*models.Task, error) {
	return getTaskByQuerier(tx, taskID)
}

func getTaskByQuerier(q Querier, taskID string) (*models.Task, error) {
	row := q.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, taskID)

	task, err := scanTaskRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "task", ID: taskID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return task, nil
}

// ListTasks retrieves tasks for an agent, optionally filtered by status.
// Ordered by position then newest first.
func ListTasks(db *sql.DB, agentID string, statusFilter models.TaskStatus) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE agent_id = ?`
	args := []any{agentID}

	if statusFilter != "" {
		query += ` AND status = ?`
		args = append(args, statusFilter)
	}

	query += ` ORDER BY position ASC, created_at DESC`

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return scanTaskRows(rows)
}

// RecentTasks returns up to limit most recently created tasks for an agent.
// Used to give the LLM gateway existing-work context so it avoids proposing
// duplicates.
func RecentTasks(db *sql.DB, agentID string, limit int) ([]*models.Task, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(context.Background(), `
		SELECT `+taskColumns+` FROM tasks
		WHERE agent_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent tasks: %w", err)
	}
	return scanTaskRows(rows)
}
