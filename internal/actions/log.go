package actions

import (
	"database/sql"

	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/store"
)

// AppendLogEntry appends one activity-log entry for an owned agent. When a
// task id is given, the task must exist and belong to that agent.
func AppendLogEntry(db *sql.DB, userID string, p store.AppendLogParams) (*models.LogEntry, error) {
	if _, err := GetAgentForUser(db, p.AgentID, userID); err != nil {
		return nil, err
	}
	if err := store.ValidateLogPayload(p.LogType, p.Message, p.Metadata); err != nil {
		return nil, err
	}
	if p.TaskID != "" {
		task, err := store.GetTask(db, p.TaskID)
		if err != nil {
			return nil, err
		}
		if task.AgentID != p.AgentID {
			return nil, &models.ValidationError{Field: "task_id", Reason: "task belongs to a different agent"}
		}
	}
	p.UserID = userID

	id, err := store.AppendLog(db, p)
	if err != nil {
		return nil, err
	}

	return &models.LogEntry{
		ID:      id,
		AgentID: p.AgentID,
		UserID:  userID,
		LogType: p.LogType,
		Message: p.Message,
		TaskID:  p.TaskID,
	}, nil
}

// ListLogEntries returns an owned agent's activity log, newest first.
func ListLogEntries(db *sql.DB, agentID, userID, typeFilter string, limit int) ([]*models.LogEntry, error) {
	if _, err := GetAgentForUser(db, agentID, userID); err != nil {
		return nil, err
	}
	return store.ListLogs(db, agentID, typeFilter, limit)
}
