package actions

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agentflow/internal/llm"
	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/store"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.InitDBWithPath(filepath.Join(t.TempDir(), "agentflow_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestAgent(t *testing.T, db *sql.DB, ownerID string) *models.Agent {
	t.Helper()
	agent, err := CreateAgentIdempotent(db, "req_agent_"+t.Name(), CreateAgentParams{
		OwnerID: ownerID,
		Name:    "test agent",
		Goal:    "ship the feature",
	})
	require.NoError(t, err)
	return agent
}

// fakeGateway returns a canned analysis or error, recording the request.
type fakeGateway struct {
	analysis *models.Analysis
	err      error
	lastReq  *llm.AnalysisRequest
	calls    int
}

func (f *fakeGateway) Analyze(_ context.Context, req *llm.AnalysisRequest) (*models.Analysis, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func (f *fakeGateway) Name() string { return "fake" }

// fakeNotifier records notifications and optionally fails delivery.
type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, message string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}
