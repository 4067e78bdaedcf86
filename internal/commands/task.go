package commands

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/agentflow/internal/actions"
	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/output"
)

// NewTaskCmd creates the task command group.
func NewTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Create and query tasks. Valid statuses: todo, in_progress, blocked, done",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskGetCmd())
	cmd.AddCommand(newTaskListCmd())

	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new task",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, _ := cmd.Flags().GetString("agent-id")
			title, _ := cmd.Flags().GetString("title")
			desc, _ := cmd.Flags().GetString("desc")
			priority, _ := cmd.Flags().GetString("priority")
			metadata, _ := cmd.Flags().GetString("metadata")
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			requestID := resolveRequestID(cmd)

			if agentID == "" {
				return cmdErr(errors.New("--agent-id is required"))
			}
			if title == "" {
				return cmdErr(errors.New("--title is required"))
			}

			var meta json.RawMessage
			if metadata != "" {
				meta = json.RawMessage(metadata)
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.CreateTaskIdempotent(db, userID, requestID, actions.CreateTaskParams{
					AgentID:     agentID,
					Title:       title,
					Description: desc,
					Priority:    models.Priority(priority),
					Metadata:    meta,
				})
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task *models.Task `json:"task"`
			}
			return output.PrintSuccess(resp{Task: task})
		},
	}

	cmd.Flags().String("agent-id", "", "Agent the task belongs to (required)")
	cmd.Flags().String("title", "", "Task title (required)")
	cmd.Flags().String("desc", "", "Task description")
	cmd.Flags().String("priority", "", "Priority: low, medium, high, urgent (default medium)")
	cmd.Flags().String("metadata", "", "Arbitrary JSON metadata")
	return cmd
}

func newTaskGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <task-id>",
		Short: "Get one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.GetTaskForUser(db, args[0], userID)
				if err != nil {
					return err
				}
				task = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Task *models.Task `json:"task"`
			}
			return output.PrintSuccess(resp{Task: task})
		},
	}
}

func newTaskListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an agent's tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, _ := cmd.Flags().GetString("agent-id")
			status, _ := cmd.Flags().GetString("status")
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			if agentID == "" {
				return cmdErr(errors.New("--agent-id is required"))
			}

			var tasks []*models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.ListTasks(db, agentID, userID, models.TaskStatus(status))
				if err != nil {
					return err
				}
				tasks = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Tasks []*models.Task `json:"tasks"`
				Count int            `json:"count"`
			}
			return output.PrintSuccess(resp{Tasks: tasks, Count: len(tasks)})
		},
	}

	cmd.Flags().String("agent-id", "", "Agent whose tasks to list (required)")
	cmd.Flags().String("status", "", "Filter by status (todo, in_progress, blocked, done)")
	return cmd
}
