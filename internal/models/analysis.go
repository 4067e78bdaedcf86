package models

// TaskSuggestion is a plain task proposed by the LLM gateway.
type TaskSuggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// DependencySuggestion is a proposed human-blocking dependency. Reason is
// what the human needs to provide before the agent can proceed.
type DependencySuggestion struct {
	Title    string   `json:"title"`
	Reason   string   `json:"reason"`
	Priority Priority `json:"priority,omitempty"`
}

// Analysis is the ephemeral result of one LLM gateway call. It is consumed
// once by materialization and never persisted; only the task and log rows
// created from it survive.
type Analysis struct {
	UserNeed        string                 `json:"user_need_analysis,omitempty"`
	Tasks           []TaskSuggestion       `json:"tasks,omitempty"`
	Dependencies    []DependencySuggestion `json:"dependencies,omitempty"`
	RecommendedFlow []string               `json:"recommended_flow,omitempty"`
}

// IsEmpty returns true when the analysis proposes no work at all.
func (a *Analysis) IsEmpty() bool {
	return a == nil || (len(a.Tasks) == 0 && len(a.Dependencies) == 0)
}
