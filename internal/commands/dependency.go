package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/agentflow/internal/actions"
	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/output"
)

// NewDependencyCmd creates the dep command group: human-blocking
// dependencies and their lifecycle (pending -> claimed -> resolved).
func NewDependencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage human-blocking dependencies",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newDepCreateCmd())
	cmd.AddCommand(newDepClaimCmd())
	cmd.AddCommand(newDepResolveCmd())
	cmd.AddCommand(newDepPendingCmd())
	cmd.AddCommand(newDepCompletedCmd())

	return cmd
}

func newDepCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a dependency that blocks on human input",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, _ := cmd.Flags().GetString("agent-id")
			title, _ := cmd.Flags().GetString("title")
			desc, _ := cmd.Flags().GetString("desc")
			reason, _ := cmd.Flags().GetString("reason")
			priority, _ := cmd.Flags().GetString("priority")
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
			if reason == "" {
				return cmdErr(errors.New("--reason is required"))
			}

			var task *models.Task
			if err := withDB(func(db *DB) error {
				t, err := actions.CreateDependencyIdempotent(db, userID, requestID, actions.CreateDependencyParams{
					AgentID:       agentID,
					Title:         title,
					Description:   desc,
					BlockedReason: reason,
					Priority:      models.Priority(priority),
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
				Dependency *models.Task `json:"dependency"`
			}
			return output.PrintSuccess(resp{Dependency: task})
		},
	}

	cmd.Flags().String("agent-id", "", "Agent the dependency belongs to (required)")
	cmd.Flags().String("title", "", "Dependency title (required)")
	cmd.Flags().String("desc", "", "Dependency description")
	cmd.Flags().String("reason", "", "What the human needs to provide (required)")
	cmd.Flags().String("priority", "", "Priority: low, medium, high, urgent (default high)")
	return cmd
}

func newDepClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <task-id>",
		Short: "Claim a pending dependency to work on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			requestID := resolveRequestID(cmd)

			var result *actions.DependencyResult
			if err := withDB(func(db *DB) error {
				r, err := actions.ClaimDependency(db, userID, requestID, args[0])
				if err != nil {
					return err
				}
				result = r
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(result)
		},
	}
}

func newDepResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <task-id>",
		Short: "Mark a dependency resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			requestID := resolveRequestID(cmd)

			var result *actions.DependencyResult
			if err := withDB(func(db *DB) error {
				r, err := actions.ResolveDependency(db, userID, requestID, args[0])
				if err != nil {
					return err
				}
				result = r
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(result)
		},
	}
}

func newDepPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List unresolved dependencies, urgent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, _ := cmd.Flags().GetString("agent-id")
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if agentID == "" {
				return cmdErr(errors.New("--agent-id is required"))
			}

			var deps []*models.Task
			if err := withDB(func(db *DB) error {
				d, err := actions.PendingDependencies(db, agentID, userID)
				if err != nil {
					return err
				}
				deps = d
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Dependencies []*models.Task `json:"dependencies"`
				Count        int            `json:"count"`
			}
			return output.PrintSuccess(resp{Dependencies: deps, Count: len(deps)})
		},
	}

	cmd.Flags().String("agent-id", "", "Agent whose dependencies to list (required)")
	return cmd
}

func newDepCompletedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completed",
		Short: "List resolved dependencies, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, _ := cmd.Flags().GetString("agent-id")
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if agentID == "" {
				return cmdErr(errors.New("--agent-id is required"))
			}

			var deps []*models.Task
			if err := withDB(func(db *DB) error {
				d, err := actions.CompletedDependencies(db, agentID, userID)
				if err != nil {
					return err
				}
				deps = d
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Dependencies []*models.Task `json:"dependencies"`
				Count        int            `json:"count"`
			}
			return output.PrintSuccess(resp{Dependencies: deps, Count: len(deps)})
		},
	}

	cmd.Flags().String("agent-id", "", "Agent whose dependencies to list (required)")
	return cmd
}
