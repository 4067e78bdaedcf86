package actions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dotcommander/agentflow/internal/llm"
	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/notify"
	"github.com/dotcommander/agentflow/internal/store"
)

// ItemError records one suggestion that failed to materialize. The rest of
// the batch is unaffected.
type ItemError struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// MaterializeResult reports what one analysis produced. Only created rows
// appear; failed items are listed in Errors.
type MaterializeResult struct {
	Tasks        []*models.Task `json:"tasks"`
	Dependencies []*models.Task `json:"dependencies"`
	Errors       []ItemError    `json:"errors,omitempty"`
}

// TasksCreated returns the number of plain tasks materialized.
func (r *MaterializeResult) TasksCreated() int { return len(r.Tasks) }

// DependenciesCreated returns the number of dependencies materialized.
func (r *MaterializeResult) DependenciesCreated() int { return len(r.Dependencies) }

// MaterializeFromAnalysis turns an analysis into task and dependency rows.
// Each suggestion commits in its own transaction so one bad item cannot
// sink the batch; failures are collected, not propagated. Suggestions with
// an empty title are skipped outright.
func MaterializeFromAnalysis(db *sql.DB, agentID, userID string, analysis *models.Analysis) *MaterializeResult {
	result := &MaterializeResult{}
	if analysis == nil {
		return result
	}

	for _, s := range analysis.Tasks {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		var created *models.Task
		err := store.Transact(db, func(tx *sql.Tx) error {
			task, err := store.CreateTaskTx(tx, store.NewTaskParams{
				AgentID:       agentID,
				Title:         s.Title,
				Description:   s.Description,
				Priority:      models.NormalizePriority(s.Priority, models.PriorityMedium),
				AutoGenerated: true,
			})
			if err != nil {
				return err
			}
			created = task
			return nil
		})
		if err != nil {
			result.Errors = append(result.Errors, ItemError{Title: s.Title, Reason: err.Error()})
			continue
		}
		result.Tasks = append(result.Tasks, created)
	}

	for _, s := range analysis.Dependencies {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		reason := s.Reason
		if strings.TrimSpace(reason) == "" {
			reason = "Needs human input"
		}
		var created *models.Task
		err := store.Transact(db, func(tx *sql.Tx) error {
			task, err := store.CreateTaskTx(tx, store.NewTaskParams{
				AgentID:       agentID,
				Title:         s.Title,
				BlockedReason: reason,
				Priority:      models.NormalizePriority(s.Priority, models.PriorityHigh),
				IsDependency:  true,
				AutoGenerated: true,
			})
			if err != nil {
				return err
			}
			_, err = store.AppendLogTx(tx, store.AppendLogParams{
				AgentID: agentID,
				UserID:  userID,
				LogType: models.LogTypeDependency,
				Message: fmt.Sprintf("Dependency created: %s (%s)", task.Title, reason),
				TaskID:  task.ID,
			})
			return err
		})
		if err != nil {
			result.Errors = append(result.Errors, ItemError{Title: s.Title, Reason: err.Error()})
			continue
		}
		result.Dependencies = append(result.Dependencies, created)
	}

	return result
}

// Orchestrator runs goal decomposition end to end: one LLM analysis, then
// materialization, a milestone log entry, and a best-effort notification
// when new dependencies need human attention.
type Orchestrator struct {
	DB       *sql.DB
	Gateway  llm.Gateway
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// GenerateAndMaterialize decomposes userInput into tasks and dependencies
// for an owned agent. A gateway failure creates no rows and no log entries.
// Materialization is best-effort; per-item failures come back in the result
// rather than as an error.
func (o *Orchestrator) GenerateAndMaterialize(ctx context.Context, agentID, userID, userInput string) (*MaterializeResult, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, &models.ValidationError{Field: "input", Reason: "input is required"}
	}
	agent, err := GetAgentForUser(o.DB, agentID, userID)
	if err != nil {
		return nil, err
	}

	recent, err := store.RecentTasks(o.DB, agentID, 0)
	if err != nil {
		return nil, err
	}
	existing := make([]llm.TaskContext, 0, len(recent))
	for _, t := range recent {
		existing = append(existing, llm.TaskContext{
			Title:        t.Title,
			Status:       string(t.Status),
			IsDependency: t.IsDependency,
		})
	}

	analysis, err := o.Gateway.Analyze(ctx, &llm.AnalysisRequest{
		UserInput:     userInput,
		AgentGoal:     agent.Goal,
		AgentBehavior: agent.Behavior,
		ExistingTasks: existing,
		UserID:        userID,
	})
	if err != nil {
		return nil, err
	}
	if analysis.IsEmpty() {
		return nil, &models.ProviderError{
			Provider: o.Gateway.Name(),
			Reason:   "analysis proposed no tasks or dependencies",
		}
	}

	result := MaterializeFromAnalysis(o.DB, agentID, userID, analysis)
	if result.TasksCreated() == 0 && result.DependenciesCreated() == 0 {
		// Every item failed or was skipped. Report failure instead of a
		// "Created 0" milestone; the caller can retry the whole request.
		firstErr := "no usable suggestions"
		if len(result.Errors) > 0 {
			firstErr = result.Errors[0].Reason
		}
		return nil, &models.MaterializationError{
			Attempted: len(analysis.Tasks) + len(analysis.Dependencies),
			FirstErr:  firstErr,
		}
	}

	msg := fmt.Sprintf("Created %d task(s) and %d dependency(ies) from: %s",
		result.TasksCreated(), result.DependenciesCreated(), firstLine(userInput))
	if _, err := store.AppendLog(o.DB, store.AppendLogParams{
		AgentID: agentID,
		UserID:  userID,
		LogType: models.LogTypeMilestone,
		Message: msg,
	}); err != nil {
		o.logger().Warn("milestone log append failed", "agent_id", agentID, "error", err)
	}

	if result.DependenciesCreated() > 0 {
		note := fmt.Sprintf("Agent %q needs your input: %d new dependency(ies) waiting.",
			agent.Name, result.DependenciesCreated())
		if err := o.Notifier.Notify(ctx, note); err != nil {
			o.logger().Warn("dependency notification failed", "agent_id", agentID, "error", err)
		}
	}

	return result, nil
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// firstLine truncates input for log messages: first line, max 120 chars.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
