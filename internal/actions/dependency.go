package actions

import (
	"database/sql"
	"fmt"

	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/store"
)

// claimMaxAttempts bounds version-conflict retries on claim/resolve. Two
// humans racing on the same dependency settle within a couple of rounds.
const claimMaxAttempts = 3

// CreateDependencyParams holds the inputs for a human-blocking dependency.
type CreateDependencyParams struct {
	AgentID       string
	Title         string
	Description   string
	BlockedReason string
	Priority      models.Priority
}

// DependencyResult is the outcome of a claim or resolve. Transitioned is
// false when the dependency was already in the requested end state.
type DependencyResult struct {
	Task         *models.Task `json:"task"`
	Transitioned bool         `json:"transitioned"`
}

// CreateDependencyIdempotent creates a blocked dependency task once per
// (user, request_id) and appends a dependency log entry in the same
// transaction.
func CreateDependencyIdempotent(db *sql.DB, userID, requestID string, p CreateDependencyParams) (*models.Task, error) {
	if requestID == "" {
		return nil, &models.ValidationError{Field: "request_id", Reason: "request id is required"}
	}
	if p.Title == "" {
		return nil, &models.ValidationError{Field: "title", Reason: "dependency title is required"}
	}
	if p.BlockedReason == "" {
		return nil, &models.ValidationError{Field: "blocked_reason", Reason: "a dependency needs a reason it is blocked"}
	}
	if _, err := GetAgentForUser(db, p.AgentID, userID); err != nil {
		return nil, err
	}

	return store.RunIdempotent(db, userID, requestID, "dependency.create", func(tx *sql.Tx) (*models.Task, error) {
		task, err := store.CreateTaskTx(tx, store.NewTaskParams{
			AgentID:       p.AgentID,
			Title:         p.Title,
			Description:   p.Description,
			// Human-blocking work defaults high: it gates the agent.
			Priority:      models.NormalizePriority(p.Priority, models.PriorityHigh),
			IsDependency:  true,
			BlockedReason: p.BlockedReason,
		})
		if err != nil {
			return nil, err
		}
		_, err = store.AppendLogTx(tx, store.AppendLogParams{
			AgentID: p.AgentID,
			UserID:  userID,
			LogType: models.LogTypeDependency,
			Message: fmt.Sprintf("Dependency created: %s (%s)", task.Title, p.BlockedReason),
			TaskID:  task.ID,
		})
		if err != nil {
			return nil, err
		}
		return task, nil
	})
}

// ClaimDependency moves a pending dependency into the user's working set,
// once per (user, request_id). The claim and its task_update log entry
// commit atomically; version conflicts retry a fresh read-and-update.
func ClaimDependency(db *sql.DB, userID, requestID, taskID string) (*DependencyResult, error) {
	task, err := GetTaskForUser(db, taskID, userID)
	if err != nil {
		return nil, err
	}
	if requestID == "" {
		return nil, &models.ValidationError{Field: "request_id", Reason: "request id is required"}
	}

	result, _, err := store.RunIdempotentWithRetry(db, userID, requestID, "dependency.claim",
		claimMaxAttempts, store.IsVersionConflict,
		func(tx *sql.Tx) (*DependencyResult, error) {
			claimed, transitioned, err := store.ClaimDependencyTx(tx, taskID)
			if err != nil {
				return nil, err
			}
			if transitioned {
				_, err = store.AppendLogTx(tx, store.AppendLogParams{
					AgentID: task.AgentID,
					UserID:  userID,
					LogType: models.LogTypeTaskUpdate,
					Message: fmt.Sprintf("Dependency claimed: %s", claimed.Title),
					TaskID:  claimed.ID,
				})
				if err != nil {
					return nil, err
				}
			}
			return &DependencyResult{Task: claimed, Transitioned: transitioned}, nil
		})
	return result, err
}

// ResolveDependency marks a dependency resolved, once per (user, request_id).
// Resolving an already-resolved dependency replays as a no-op success.
func ResolveDependency(db *sql.DB, userID, requestID, taskID string) (*DependencyResult, error) {
	task, err := GetTaskForUser(db, taskID, userID)
	if err != nil {
		return nil, err
	}
	if requestID == "" {
		return nil, &models.ValidationError{Field: "request_id", Reason: "request id is required"}
	}

	result, _, err := store.RunIdempotentWithRetry(db, userID, requestID, "dependency.resolve",
		claimMaxAttempts, store.IsVersionConflict,
		func(tx *sql.Tx) (*DependencyResult, error) {
			resolved, transitioned, err := store.ResolveDependencyTx(tx, taskID)
			if err != nil {
				return nil, err
			}
			if transitioned {
				_, err = store.AppendLogTx(tx, store.AppendLogParams{
					AgentID: task.AgentID,
					UserID:  userID,
					LogType: models.LogTypeDependency,
					Message: fmt.Sprintf("Dependency resolved: %s", resolved.Title),
					TaskID:  resolved.ID,
				})
				if err != nil {
					return nil, err
				}
			}
			return &DependencyResult{Task: resolved, Transitioned: transitioned}, nil
		})
	return result, err
}

// PendingDependencies returns an owned agent's unresolved dependencies,
// urgent first.
func PendingDependencies(db *sql.DB, agentID, userID string) ([]*models.Task, error) {
	if _, err := GetAgentForUser(db, agentID, userID); err != nil {
		return nil, err
	}
	return store.PendingDependencies(db, agentID)
}

// CompletedDependencies returns an owned agent's resolved dependencies,
// most recently resolved first.
func CompletedDependencies(db *sql.DB, agentID, userID string) ([]*models.Task, error) {
	if _, err := GetAgentForUser(db, agentID, userID); err != nil {
		return nil, err
	}
	return store.CompletedDependencies(db, agentID)
}
