package store

import (
	"database/sql"
	"encoding/json"

	"github.com/dotcommander/agentflow/internal/models"
)

// scanNullString converts sql.NullString to string (empty if NULL)
func scanNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// taskColumns is the SELECT list every task read shares. Keep in sync with
// taskRowScanner.scan.
const taskColumns = `id, agent_id, title, description, status, priority,
	is_dependency, blocked_reason, auto_generated, workflow_status,
	moved_to_tasks, in_history, metadata, position, version, created_at, updated_at`

// taskRowScanner encapsulates the common task row scanning logic.
type taskRowScanner struct {
	task          models.Task
	description   sql.NullString
	blockedReason sql.NullString
	metadata      sql.NullString
}

func (s *taskRowScanner) scan(row interface {
	Scan(dest ...any) error
}) error {
	return row.Scan(
		&s.task.ID,
		&s.task.AgentID,
		&s.task.Title,
		&s.description,
		&s.task.Status,
		&s.task.Priority,
		&s.task.IsDependency,
		&s.blockedReason,
		&s.task.AutoGenerated,
		&s.task.Workflow,
		&s.task.MovedToTasks,
		&s.task.InHistory,
		&s.metadata,
		&s.task.Position,
		&s.task.Version,
		&s.task.CreatedAt,
		&s.task.UpdatedAt,
	)
}

func (s *taskRowScanner) hydrate() {
	s.task.Description = scanNullString(s.description)
	s.task.BlockedReason = scanNullString(s.blockedReason)
	if s.metadata.Valid && s.metadata.String != "" {
		s.task.Metadata = json.RawMessage(s.metadata.String)
	}
}

func (s *taskRowScanner) getTask() *models.Task {
	return &s.task
}

// scanTaskRow scans and hydrates a task from a single row.
func scanTaskRow(row interface {
	Scan(dest ...any) error
}) (*models.Task, error) {
	scanner := &taskRowScanner{}
	if err := scanner.scan(row); err != nil {
		return nil, err
	}
	scanner.hydrate()
	return scanner.getTask(), nil
}

// scanTaskRows drains a task result set.
func scanTaskRows(rows *sql.Rows) ([]*models.Task, error) {
	defer func() { _ = rows.Close() }()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
