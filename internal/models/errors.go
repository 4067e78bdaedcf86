package models

import "fmt"

// RecoverableError is implemented by enriched errors that carry structured
// context and remediation hints. Both the store and output packages use this
// interface to avoid an import cycle.
type RecoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

// Error codes surfaced through the tagged response boundary.
const (
	CodeValidation             = "VALIDATION"
	CodeNotFound               = "NOT_FOUND"
	CodePermissionDenied       = "PERMISSION_DENIED"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeProviderFailure        = "PROVIDER_FAILURE"
	CodePartialMaterialization = "PARTIAL_MATERIALIZATION"
	CodeVersionConflict        = "VERSION_CONFLICT"
	CodeStoreError             = "STORE_ERROR"
)

// NotFoundError reports a missing agent, task, or dependency.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}
func (e *NotFoundError) ErrorCode() string { return CodeNotFound }
func (e *NotFoundError) Context() map[string]string {
	return map[string]string{"entity": e.Entity, "id": e.ID}
}
func (e *NotFoundError) SuggestedAction() string {
	return fmt.Sprintf("verify the %s id and retry", e.Entity)
}

// PermissionDeniedError reports an ownership check failure.
type PermissionDeniedError struct {
	UserID  string
	AgentID string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("user %s does not own agent %s", e.UserID, e.AgentID)
}
func (e *PermissionDeniedError) ErrorCode() string { return CodePermissionDenied }
func (e *PermissionDeniedError) Context() map[string]string {
	return map[string]string{"user_id": e.UserID, "agent_id": e.AgentID}
}
func (e *PermissionDeniedError) SuggestedAction() string {
	return "use the --user that created the agent"
}

// InvalidTransitionError reports a lifecycle move the transition table
// rejects.
type InvalidTransitionError struct {
	TaskID string
	From   WorkflowStatus
	To     WorkflowStatus
}

func (e *InvalidTransitionError) Error() string {
	from := string(e.From)
	if from == "" {
		from = "pending"
	}
	return fmt.Sprintf("dependency %s cannot move from %s to %s", e.TaskID, from, e.To)
}
func (e *InvalidTransitionError) ErrorCode() string { return CodeInvalidTransition }
func (e *InvalidTransitionError) Context() map[string]string {
	return map[string]string{"task_id": e.TaskID, "from": string(e.From), "to": string(e.To)}
}
func (e *InvalidTransitionError) SuggestedAction() string {
	return "re-read the dependency; it was likely resolved by someone else"
}

// ProviderError reports an LLM gateway failure: unreachable provider,
// timeout, or output that could not be parsed into an analysis.
type ProviderError struct {
	Provider string
	Reason   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s failed: %s", e.Provider, e.Reason)
}
func (e *ProviderError) ErrorCode() string { return CodeProviderFailure }
func (e *ProviderError) Context() map[string]string {
	return map[string]string{"provider": e.Provider, "reason": e.Reason}
}
func (e *ProviderError) SuggestedAction() string {
	return "check provider configuration and retry"
}

// MaterializationError reports an analysis whose items all failed to
// materialize. Partial failures are not errors; this fires only when zero
// rows were created.
type MaterializationError struct {
	Attempted int
	FirstErr  string
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("no rows created from %d suggestion(s): %s", e.Attempted, e.FirstErr)
}
func (e *MaterializationError) ErrorCode() string { return CodeStoreError }
func (e *MaterializationError) Context() map[string]string {
	return map[string]string{"attempted": fmt.Sprintf("%d", e.Attempted), "first_error": e.FirstErr}
}
func (e *MaterializationError) SuggestedAction() string {
	return "check the store error and retry the generation"
}

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
func (e *ValidationError) ErrorCode() string { return CodeValidation }
func (e *ValidationError) Context() map[string]string {
	return map[string]string{"field": e.Field, "reason": e.Reason}
}
func (e *ValidationError) SuggestedAction() string {
	return fmt.Sprintf("fix the %s value and retry", e.Field)
}
