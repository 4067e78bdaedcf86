package commands

import (
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func resolveUserID(cmd *cobra.Command) string {
	if v, err := cmd.Flags().GetString("user"); err == nil && v != "" {
		return v
	}
	return os.Getenv("AGENTFLOW_USER")
}

// requireUserID enforces that every command runs as a known user; ownership
// checks hang off it.
func requireUserID(cmd *cobra.Command) (string, error) {
	uid := resolveUserID(cmd)
	if uid == "" {
		return "", errors.New("user id is required (set --user or AGENTFLOW_USER)")
	}
	return uid, nil
}

// resolveRequestID returns the idempotency key for a mutating command.
// Callers that omit one get a fresh UUID, which makes the call effectively
// at-most-once rather than replayable.
func resolveRequestID(cmd *cobra.Command) string {
	if v, err := cmd.Flags().GetString("request-id"); err == nil && v != "" {
		return v
	}
	if v := os.Getenv("AGENTFLOW_REQUEST_ID"); v != "" {
		return v
	}
	return uuid.NewString()
}
