package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/agentflow/internal/actions"
	"github.com/dotcommander/agentflow/internal/models"
	"github.com/dotcommander/agentflow/internal/output"
)

// NewAgentCmd creates the agent command group.
func NewAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agents",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newAgentCreateCmd())
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentGetCmd())
	cmd.AddCommand(newAgentSetStatusCmd())

	return cmd
}

func newAgentCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			goal, _ := cmd.Flags().GetString("goal")
			behavior, _ := cmd.Flags().GetString("behavior")
			templateID, _ := cmd.Flags().GetString("template-id")
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			requestID := resolveRequestID(cmd)

			if name == "" {
				return cmdErr(errors.New("--name is required"))
			}
			if goal == "" {
				return cmdErr(errors.New("--goal is required"))
			}

			var agent *models.Agent
			if err := withDB(func(db *DB) error {
				a, err := actions.CreateAgentIdempotent(db, requestID, actions.CreateAgentParams{
					OwnerID:    userID,
					Name:       name,
					Goal:       goal,
					Behavior:   behavior,
					TemplateID: templateID,
				})
				if err != nil {
					return err
				}
				agent = a
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Agent *models.Agent `json:"agent"`
			}
			return output.PrintSuccess(resp{Agent: agent})
		},
	}

	cmd.Flags().String("name", "", "Agent name (required)")
	cmd.Flags().String("goal", "", "What the agent is working toward (required)")
	cmd.Flags().String("behavior", "", "Behavioral guidance passed to generation")
	cmd.Flags().String("template-id", "", "Template the agent was created from")
	return cmd
}

func newAgentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your agents, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			var agents []*models.Agent
			if err := withDB(func(db *DB) error {
				a, err := actions.ListAgents(db, userID)
				if err != nil {
					return err
				}
				agents = a
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Agents []*models.Agent `json:"agents"`
				Count  int             `json:"count"`
			}
			return output.PrintSuccess(resp{Agents: agents, Count: len(agents)})
		},
	}
}

func newAgentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <agent-id>",
		Short: "Get one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			var agent *models.Agent
			if err := withDB(func(db *DB) error {
				a, err := actions.GetAgentForUser(db, args[0], userID)
				if err != nil {
					return err
				}
				agent = a
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Agent *models.Agent `json:"agent"`
			}
			return output.PrintSuccess(resp{Agent: agent})
		},
	}
}

func newAgentSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <agent-id> <status>",
		Short: "Set agent status (active, paused, completed, error)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			if err := withDB(func(db *DB) error {
				return actions.SetAgentStatus(db, args[0], userID, models.AgentStatus(args[1]))
			}); err != nil {
				return err
			}

			type resp struct {
				AgentID string `json:"agent_id"`
				Status  string `json:"status"`
			}
			return output.PrintSuccess(resp{AgentID: args[0], Status: args[1]})
		},
	}
}
