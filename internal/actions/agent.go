// Package actions implements the business operations the CLI exposes. Each
// action validates inputs, runs the store work in a transaction (idempotent
// where a request id is involved), and writes the activity-log entries that
// record what happened. Side effects like notifications run after commit and
// never affect the returned result.
package actions

import (
	"database/sql"
	"errors"

	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/store"
)

// CreateAgentParams holds the inputs for agent creation.
type CreateAgentParams struct {
	OwnerID    string
	Name       string
	Goal       string
	Behavior   string
	TemplateID string
}

// CreateAgentIdempotent creates an agent once per (user, request_id).
// Retries with the same request id replay the original result.
func CreateAgentIdempotent(db *sql.DB, requestID string, p CreateAgentParams) (*models.Agent, error) {
	if p.OwnerID == "" {
		return nil, &models.ValidationError{Field: "owner_id", Reason: "owner id is required"}
	}
	if requestID == "" {
		return nil, &models.ValidationError{Field: "request_id", Reason: "request id is required"}
	}
	if p.Name == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "agent name is required"}
	}
	if p.Goal == "" {
		return nil, &models.ValidationError{Field: "goal", Reason: "agent goal is required"}
	}

	return store.RunIdempotent(db, p.OwnerID, requestID, "agent.create", func(tx *sql.Tx) (*models.Agent, error) {
		return store.CreateAgentTx(tx, p.OwnerID, p.Name, p.Goal, p.Behavior, p.TemplateID)
	})
}

// GetAgentForUser loads an agent and enforces ownership.
func GetAgentForUser(db *sql.DB, agentID, userID string) (*models.Agent, error) {
	if agentID == "" {
		return nil, &models.ValidationError{Field: "agent_id", Reason: "agent id is required"}
	}
	agent, err := store.GetAgent(db, agentID)
	if err != nil {
		return nil, err
	}
	if userID != "" && agent.OwnerID != userID {
		return nil, &models.PermissionDeniedError{UserID: userID, AgentID: agentID}
	}
	return agent, nil
}

// ListAgents returns the user's agents, newest first.
func ListAgents(db *sql.DB, ownerID string) ([]*models.Agent, error) {
	if ownerID == "" {
		return nil, &models.ValidationError{Field: "owner_id", Reason: "owner id is required"}
	}
	return store.ListAgents(db, ownerID)
}

// SetAgentStatus updates an owned agent's lifecycle status.
func SetAgentStatus(db *sql.DB, agentID, userID string, status models.AgentStatus) error {
	if _, err := GetAgentForUser(db, agentID, userID); err != nil {
		return err
	}
	return store.SetAgentStatus(db, agentID, status)
}

// IsNotFound reports whether err is an entity-not-found error.
func IsNotFound(err error) bool {
	var nf *models.NotFoundError
	return errors.As(err, &nf)
}
