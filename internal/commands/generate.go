package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/agentflow/internal/actions"
	"github.com/dotcommander/agentflow/internal/app"
	"github.com/dotcommander/agentflow/internal/llm"
	"github.com/dotcommander/agentflow/internal/notify"
	"github.com/dotcommander/agentflow/internal/output"
)

// NewGenerateCmd creates the generate command: one LLM analysis of the
// user's input, materialized into task and dependency rows.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <agent-id> [input...]",
		Short: "Decompose a goal into tasks and dependencies via the LLM",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]
			input, _ := cmd.Flags().GetString("input")
			if input == "" {
				input = strings.Join(args[1:], " ")
			}
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if strings.TrimSpace(input) == "" {
				return cmdErr(errors.New("input is required (positional args or --input)"))
			}

			settings, err := app.LoadSettings()
			if err != nil {
				return cmdErr(err)
			}
			llmCfg := settings.EffectiveLLMSettings()
			gateway, err := llm.ResolveGateway(llmCfg)
			if err != nil {
				return cmdErr(err)
			}

			var result *actions.MaterializeResult
			if err := withDB(func(db *DB) error {
				orch := &actions.Orchestrator{
					DB:       db,
					Gateway:  gateway,
					Notifier: notify.FromWebhookURL(settings.Slack.WebhookURL),
					Logger:   slog.Default(),
				}

				ctx, cancel := context.WithTimeout(cmd.Context(), llm.Timeout(llmCfg))
				defer cancel()

				r, err := orch.GenerateAndMaterialize(ctx, agentID, userID, input)
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

	cmd.Flags().String("input", "", "Goal or request to decompose")
	return cmd
}
