package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dotcommander/agentflow/internal/models"
)

const agentColumns = `id, owner_id, name, goal, behavior, status, template_id, created_at`

// CreateAgentTx inserts and returns an agent inside an existing transaction.
func CreateAgentTx(tx *sql.Tx, ownerID, name, goal, behavior, templateID string) (*models.Agent, error) {
	if ownerID == "" {
		return nil, errors.New("owner id is required")
	}
	if name == "" {
		return nil, errors.New("agent name is required")
	}
	if goal == "" {
		return nil, errors.New("agent goal is required")
	}

	agentID := generateAgentID()
	var behaviorVal, templateVal any
	if behavior != "" {
		behaviorVal = behavior
	}
	if templateID != "" {
		templateVal = templateID
	}

	_, err := tx.ExecContext(context.Background(), `
		INSERT INTO agents (id, owner_id, name, goal, behavior, status, template_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, agentID, ownerID, name, goal, behaviorVal, models.AgentStatusActive, templateVal)
	if err != nil {
		return nil, fmt.Errorf("failed to insert agent: %w", err)
	}

	return getAgentByQuerier(tx, agentID)
}

// GetAgent retrieves an agent by ID. Returns models.NotFoundError when absent.
func GetAgent(db *sql.DB, agentID string) (*models.Agent, error) {
	return getAgentByQuerier(db, agentID)
}

func getAgentTx(tx *sql.Tx, agentID string) (*models.Agent, error) {
	return getAgentByQuerier(tx, agentID)
}

func getAgentByQuerier(q Querier, agentID string) (*models.Agent, error) {
	row := q.QueryRow(`SELECT `+agentColumns+` FROM agents WHERE id = ?`, agentID)

	agent, err := scanAgentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "agent", ID: agentID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query agent: %w", err)
	}
	return agent, nil
}

// ListAgents retrieves all agents for an owner, newest first.
func ListAgents(db *sql.DB, ownerID string) ([]*models.Agent, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT `+agentColumns+` FROM agents
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var agents []*models.Agent
	for rows.Next() {
		agent, err := scanAgentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent row: %w", err)
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// SetAgentStatus updates an agent's status. Returns models.NotFoundError when
// the agent does not exist.
func SetAgentStatus(db *sql.DB, agentID string, status models.AgentStatus) error {
	if !status.IsValid() {
		return &models.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown agent status %q", status)}
	}
	return RetryWithBackoff(func() error {
		result, err := db.ExecContext(context.Background(), `
			UPDATE agents SET status = ? WHERE id = ?
		`, status, agentID)
		if err != nil {
			return fmt.Errorf("failed to update agent status: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "agent", ID: agentID}
		}
		return nil
	})
}

func scanAgentRow(row interface {
	Scan(dest ...any) error
}) (*models.Agent, error) {
	var agent models.Agent
	var behavior, templateID sql.NullString
	err := row.Scan(
		&agent.ID,
		&agent.OwnerID,
		&agent.Name,
		&agent.Goal,
		&behavior,
		&agent.Status,
		&templateID,
		&agent.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	agent.Behavior = scanNullString(behavior)
	agent.TemplateID = scanNullString(templateID)
	return &agent, nil
}
