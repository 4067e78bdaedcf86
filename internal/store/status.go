package store

import (
	"context"
	"database/sql"
	"fmt"
)

// StatusCounts holds summary counts for one agent's dashboard.
type StatusCounts struct {
	Tasks        TaskStatusCounts  `json:"tasks"`
	Dependencies *DependencyCounts `json:"dependencies"`
	Logs         int               `json:"logs"`
}

// TaskStatusCounts breaks down task counts by status.
type TaskStatusCounts struct {
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Blocked    int `json:"blocked"`
	Done       int `json:"done"`
}

// GetStatusCounts retrieves all status counts for an agent with retry.
// Recomputed on every call; the dashboard view never caches.
func GetStatusCounts(db *sql.DB, agentID string) (*StatusCounts, error) {
	counts := &StatusCounts{}

	err := RetryWithBackoff(func() error {
		return db.QueryRowContext(context.Background(), `
			SELECT
				COALESCE((SELECT SUM(CASE WHEN status = 'todo' THEN 1 ELSE 0 END) FROM tasks WHERE agent_id = ?1), 0),
				COALESCE((SELECT SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END) FROM tasks WHERE agent_id = ?1), 0),
				COALESCE((SELECT SUM(CASE WHEN status = 'blocked' THEN 1 ELSE 0 END) FROM tasks WHERE agent_id = ?1), 0),
				COALESCE((SELECT SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END) FROM tasks WHERE agent_id = ?1), 0),
				(SELECT COUNT(*) FROM agent_logs WHERE agent_id = ?1)
		`, agentID).Scan(
			&counts.Tasks.Todo,
			&counts.Tasks.InProgress,
			&counts.Tasks.Blocked,
			&counts.Tasks.Done,
			&counts.Logs,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}

	deps, err := GetDependencyCounts(db, agentID)
	if err != nil {
		return nil, err
	}
	counts.Dependencies = deps

	return counts, nil
}
