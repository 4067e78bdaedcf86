package models

import (
	"encoding/json"
	"time"
)

// ID Strategy:
// - Log entries use int64 (monotonic ordering, auto-increment)
// - Agents and Tasks use string (distributed generation, e.g., "task_1234567890_a3f9")
//
// Append-only logs benefit from sequential IDs (efficient indexing);
// rows created from concurrent CLI invocations benefit from collision-free
// string IDs.

// AgentStatus represents the current state of an agent.
type AgentStatus string

// Agent status constants.
const (
	AgentStatusActive    AgentStatus = "active"
	AgentStatusPaused    AgentStatus = "paused"
	AgentStatusCompleted AgentStatus = "completed"
	AgentStatusError     AgentStatus = "error"
)

// IsValid returns true if s is a known agent status.
func (s AgentStatus) IsValid() bool {
	switch s {
	case AgentStatusActive, AgentStatusPaused, AgentStatusCompleted, AgentStatusError:
		return true
	}
	return false
}

// TaskStatus represents the current state of a task.
type TaskStatus string

// Task status constants.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusDone       TaskStatus = "done"
)

// IsTerminal returns true if the task is in a completed state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone
}

// IsValid returns true if s is a known task status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusBlocked, TaskStatusDone:
		return true
	}
	return false
}

// Priority represents task urgency as reported to humans and dashboards.
type Priority string

// Priority constants.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid returns true if p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// IsUrgent returns true for the priorities that count toward the urgent
// bucket of the pending-dependency rollup.
func (p Priority) IsUrgent() bool {
	return p == PriorityUrgent || p == PriorityHigh
}

// NormalizePriority maps the empty string and unknown values to a default.
func NormalizePriority(p Priority, fallback Priority) Priority {
	if p.IsValid() {
		return p
	}
	return fallback
}

// WorkflowStatus is the explicit dependency lifecycle state. It replaces the
// ad hoc workflow flags a reader would otherwise have to infer from a
// metadata map; every write validates against the transition table below.
type WorkflowStatus string

// Workflow status constants. The zero value ("") means the task has no
// workflow state, which for dependencies is equivalent to pending.
const (
	WorkflowNone        WorkflowStatus = ""
	WorkflowPending     WorkflowStatus = "pending"
	WorkflowUserWorking WorkflowStatus = "user_working"
	WorkflowCompleted   WorkflowStatus = "completed"
)

// IsPending returns true while a dependency is waiting for a human.
func (w WorkflowStatus) IsPending() bool {
	return w == WorkflowNone || w == WorkflowPending
}

// CanTransitionTo reports whether the lifecycle permits moving from w to
// next. Transitions are monotonic forward:
//
//	pending      -> user_working, completed
//	user_working -> user_working (no-op re-claim), completed
//	completed    -> completed (no-op re-resolve)
func (w WorkflowStatus) CanTransitionTo(next WorkflowStatus) bool {
	switch {
	case w.IsPending():
		return next == WorkflowUserWorking || next == WorkflowCompleted
	case w == WorkflowUserWorking:
		return next == WorkflowUserWorking || next == WorkflowCompleted
	case w == WorkflowCompleted:
		return next == WorkflowCompleted
	}
	return false
}

// Agent owns a goal and the tasks generated toward it.
type Agent struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id"`
	Name       string      `json:"name"`
	Goal       string      `json:"goal"`
	Behavior   string      `json:"behavior,omitempty"`
	Status     AgentStatus `json:"status"`
	TemplateID string      `json:"template_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Task represents a unit of work belonging to an agent. A task with
// IsDependency set is a human-blocking dependency and moves through the
// WorkflowStatus lifecycle; ordinary tasks only use Status.
type Task struct {
	ID            string          `json:"id"`
	AgentID       string          `json:"agent_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Status        TaskStatus      `json:"status"`
	Priority      Priority        `json:"priority"`
	IsDependency  bool            `json:"is_dependency"`
	BlockedReason string          `json:"blocked_reason,omitempty"`
	AutoGenerated bool            `json:"auto_generated"`
	Workflow      WorkflowStatus  `json:"workflow_status,omitempty"`
	MovedToTasks  bool            `json:"moved_to_tasks"`
	InHistory     bool            `json:"in_history"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	Position      int             `json:"position,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsPendingDependency returns true if the task appears in the
// pending-dependency projection.
func (t *Task) IsPendingDependency() bool {
	return t.IsDependency &&
		t.Status != TaskStatusDone &&
		t.Workflow != WorkflowCompleted &&
		!t.MovedToTasks
}

// IsResolvedDependency returns true if the task appears in the
// completed-dependency projection.
func (t *Task) IsResolvedDependency() bool {
	return t.IsDependency &&
		t.Status == TaskStatusDone &&
		(t.Workflow == WorkflowCompleted || t.InHistory)
}

// IsClaimed returns true if a human has taken the dependency on.
func (t *Task) IsClaimed() bool {
	return t.IsDependency && t.Workflow == WorkflowUserWorking
}

// LogEntry is one row of the append-only agent activity log.
type LogEntry struct {
	ID        int64           `json:"id"`
	AgentID   string          `json:"agent_id"`
	UserID    string          `json:"user_id,omitempty"`
	LogType   string          `json:"log_type"`
	Message   string          `json:"message"`
	TaskID    string          `json:"task_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
