package actions

import (
	"database/sql"

	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/store"
)

// AgentStatus is the one-shot dashboard view of an agent: the agent row
// plus task, dependency, and log counts recomputed from current rows.
type AgentStatus struct {
	Agent  *models.Agent       `json:"agent"`
	Counts *store.StatusCounts `json:"counts"`
}

// GetAgentStatus loads an owned agent and its current counts.
func GetAgentStatus(db *sql.DB, agentID, userID string) (*AgentStatus, error) {
	agent, err := GetAgentForUser(db, agentID, userID)
	if err != nil {
		return nil, err
	}
	counts, err := store.GetStatusCounts(db, agentID)
	if err != nil {
		return nil, err
	}
	return &AgentStatus{Agent: agent, Counts: counts}, nil
}
