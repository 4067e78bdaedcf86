package models

// Log types written by the store and action layers. Dashboards filter on
// these, so they are part of the persisted contract.
const (
	LogTypeMilestone  = "milestone"
	LogTypeAction     = "action"
	LogTypeInfo       = "info"
	LogTypeSuccess    = "success"
	LogTypeError      = "error"
	LogTypeTaskUpdate = "task_update"
	LogTypeDependency = "dependency"
)

// IsValidLogType returns true if t is a known log type.
func IsValidLogType(t string) bool {
	switch t {
	case LogTypeMilestone, LogTypeAction, LogTypeInfo, LogTypeSuccess,
		LogTypeError, LogTypeTaskUpdate, LogTypeDependency:
		return true
	}
	return false
}
