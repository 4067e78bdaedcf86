package actions

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/store"
)

// CreateTaskParams holds the inputs for a plain (non-dependency) task.
type CreateTaskParams struct {
	AgentID     string
	Title       string
	Description string
	Priority    models.Priority
	Metadata    json.RawMessage
}

// CreateTaskIdempotent creates a plain task once per (user, request_id) and
// appends a task_update log entry in the same transaction.
func CreateTaskIdempotent(db *sql.DB, userID, requestID string, p CreateTaskParams) (*models.Task, error) {
	if requestID == "" {
		return nil, &models.ValidationError{Field: "request_id", Reason: "request id is required"}
	}
	if p.Title == "" {
		return nil, &models.ValidationError{Field: "title", Reason: "task title is required"}
	}
	if _, err := GetAgentForUser(db, p.AgentID, userID); err != nil {
		return nil, err
	}

	return store.RunIdempotent(db, userID, requestID, "task.create", func(tx *sql.Tx) (*models.Task, error) {
		task, err := store.CreateTaskTx(tx, store.NewTaskParams{
			AgentID:     p.AgentID,
			Title:       p.Title,
			Description: p.Description,
			Priority:    models.NormalizePriority(p.Priority, models.PriorityMedium),
			Metadata:    p.Metadata,
		})
		if err != nil {
			return nil, err
		}
		_, err = store.AppendLogTx(tx, store.AppendLogParams{
			AgentID: p.AgentID,
			UserID:  userID,
			LogType: models.LogTypeTaskUpdate,
			Message: fmt.Sprintf("Task created: %s", task.Title),
			TaskID:  task.ID,
		})
		if err != nil {
			return nil, err
		}
		return task, nil
	})
}

// ListTasks returns an owned agent's tasks, optionally filtered by status.
func ListTasks(db *sql.DB, agentID, userID string, statusFilter models.TaskStatus) ([]*models.Task, error) {
	if _, err := GetAgentForUser(db, agentID, userID); err != nil {
		return nil, err
	}
	return store.ListTasks(db, agentID, statusFilter)
}

// GetTaskForUser loads a task and enforces ownership of its agent.
func GetTaskForUser(db *sql.DB, taskID, userID string) (*models.Task, error) {
	if taskID == "" {
		return nil, &models.ValidationError{Field: "task_id", Reason: "task id is required"}
	}
	task, err := store.GetTask(db, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := GetAgentForUser(db, task.AgentID, userID); err != nil {
		return nil, err
	}
	return task, nil
}
