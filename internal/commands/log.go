package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/agentflow/internal/actions"
	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/output"
	"github.com/dotcommander/agentflow/internal/store"
)

// NewLogCmd creates the log command group over the append-only activity log.
func NewLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Append to and read the agent activity log",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newLogAddCmd())
	cmd.AddCommand(newLogListCmd())

	return cmd
}

func newLogAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append one activity-log entry",
		Long:  "Append one entry. Valid types: milestone, action, info, success, error, task_update, dependency",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, _ := cmd.Flags().GetString("agent-id")
			logType, _ := cmd.Flags().GetString("type")
			message, _ := cmd.Flags().GetString("message")
			taskID, _ := cmd.Flags().GetString("task-id")
			metadata, _ := cmd.Flags().GetString("metadata")
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			if agentID == "" {
				return cmdErr(errors.New("--agent-id is required"))
			}
			if message == "" {
				return cmdErr(errors.New("--message is required"))
			}
			if logType == "" {
				logType = models.LogTypeInfo
			}

			var entry *models.LogEntry
			if err := withDB(func(db *DB) error {
				e, err := actions.AppendLogEntry(db, userID, store.AppendLogParams{
					AgentID:  agentID,
					LogType:  logType,
					Message:  message,
					TaskID:   taskID,
					Metadata: metadata,
				})
				if err != nil {
					return err
				}
				entry = e
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Entry *models.LogEntry `json:"entry"`
			}
			return output.PrintSuccess(resp{Entry: entry})
		},
	}

	cmd.Flags().String("agent-id", "", "Agent the entry belongs to (required)")
	cmd.Flags().String("type", "", "Log type (default info)")
	cmd.Flags().String("message", "", "Log message (required)")
	cmd.Flags().String("task-id", "", "Task the entry refers to")
	cmd.Flags().String("metadata", "", "Arbitrary JSON metadata")
	return cmd
}

func newLogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an agent's activity log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, _ := cmd.Flags().GetString("agent-id")
			typeFilter, _ := cmd.Flags().GetString("type")
			limit, _ := cmd.Flags().GetInt("limit")
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if agentID == "" {
				return cmdErr(errors.New("--agent-id is required"))
			}

			var entries []*models.LogEntry
			if err := withDB(func(db *DB) error {
				e, err := actions.ListLogEntries(db, agentID, userID, typeFilter, limit)
				if err != nil {
					return err
				}
				entries = e
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Entries []*models.LogEntry `json:"entries"`
				Count   int                `json:"count"`
			}
			return output.PrintSuccess(resp{Entries: entries, Count: len(entries)})
		},
	}

	cmd.Flags().String("agent-id", "", "Agent whose log to list (required)")
	cmd.Flags().String("type", "", "Filter by log type")
	cmd.Flags().Int("limit", 0, "Max entries (default 50)")
	return cmd
}
