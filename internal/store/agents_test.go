package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agentflow/internal/models"
)

func TestCreateAgentTx_DefaultsAndRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	var created *models.Agent
	err := Transact(db, func(tx *sql.Tx) error {
		var txErr error
		created, txErr = CreateAgentTx(tx, "user_1", "research bot", "summarize papers", "be terse", "tmpl_1")
		return txErr
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Contains(t, created.ID, "agent_")
	require.Equal(t, models.AgentStatusActive, created.Status)
	require.Equal(t, "user_1", created.OwnerID)

	got, err := GetAgent(db, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "research bot", got.Name)
	require.Equal(t, "summarize papers", got.Goal)
	require.Equal(t, "be terse", got.Behavior)
	require.Equal(t, "tmpl_1", got.TemplateID)
	require.False(t, got.CreatedAt.IsZero())
}

func TestGetAgent_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetAgent(db, "agent_missing")
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "agent", nf.Entity)
}

func TestListAgents_OnlyOwnersNewestFirst(t *testing.T) {
	db := setupTestDB(t)

	first := createTestAgent(t, db, "user_1")
	createTestAgent(t, db, "user_2")
	second := createTestAgent(t, db, "user_1")

	agents, err := ListAgents(db, "user_1")
	require.NoError(t, err)
	require.Len(t, agents, 2)
	ids := []string{agents[0].ID, agents[1].ID}
	require.Contains(t, ids, first.ID)
	require.Contains(t, ids, second.ID)
}

func TestSetAgentStatus(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	require.NoError(t, SetAgentStatus(db, agent.ID, models.AgentStatusPaused))

	got, err := GetAgent(db, agent.ID)
	require.NoError(t, err)
	require.Equal(t, models.AgentStatusPaused, got.Status)
}

func TestSetAgentStatus_InvalidStatus(t *testing.T) {
	db := setupTestDB(t)
	agent := createTestAgent(t, db, "user_1")

	err := SetAgentStatus(db, agent.ID, models.AgentStatus("sleeping"))
	require.Error(t, err)
}

func TestSetAgentStatus_MissingAgent(t *testing.T) {
	db := setupTestDB(t)

	err := SetAgentStatus(db, "agent_missing", models.AgentStatusPaused)
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
}
