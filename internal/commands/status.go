package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotcommander/agentflow/internal/actions"
	"github.com/dotcommander/agentflow/internal/output"
	"github.com/dotcommander/agentflow/internal/store"
)

// NewStatusCmd creates the status command: an agent dashboard with task,
// dependency, and log counts recomputed from current rows.
func NewStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <agent-id>",
		Short: "Show an agent's current task and dependency counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUserID(cmd)
			if err != nil {
				return cmdErr(err)
			}

			var status *actions.AgentStatus
			var schemaCurrent, schemaLatest int64
			if err := withDB(func(db *DB) error {
				s, err := actions.GetAgentStatus(db, args[0], userID)
				if err != nil {
					return err
				}
				status = s
				schemaCurrent, schemaLatest, err = store.SchemaVersion(db)
				return err
			}); err != nil {
				return err
			}

			if jsonOut {
				type resp struct {
					*actions.AgentStatus
					SchemaCurrent int64 `json:"schema_current"`
					SchemaLatest  int64 `json:"schema_latest"`
				}
				return output.PrintSuccess(resp{AgentStatus: status, SchemaCurrent: schemaCurrent, SchemaLatest: schemaLatest})
			}

			printHumanStatus(status, schemaCurrent, schemaLatest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the JSON envelope instead of the human summary")
	return cmd
}

func printHumanStatus(s *actions.AgentStatus, schemaCurrent, schemaLatest int64) {
	fmt.Printf("%s %s (%s)\n", color.CyanString("Agent:"), s.Agent.Name, s.Agent.ID)
	fmt.Printf("%s %s\n", color.CyanString("Goal:"), s.Agent.Goal)
	fmt.Printf("%s %s\n\n", color.CyanString("Status:"), string(s.Agent.Status))

	t := s.Counts.Tasks
	fmt.Printf("Tasks: %d todo, %d in progress, %d blocked, %d done\n",
		t.Todo, t.InProgress, t.Blocked, t.Done)

	d := s.Counts.Dependencies
	pending := fmt.Sprintf("%d pending", d.Pending)
	if d.Urgent > 0 {
		pending = color.RedString("%d pending (%d urgent)", d.Pending, d.Urgent)
	}
	fmt.Printf("Dependencies: %s, %s\n",
		pending, color.GreenString("%d completed", d.Completed))
	fmt.Printf("Active user tasks: %d\n", d.ActiveUserTasks)

	fmt.Printf("Log entries: %d\n", s.Counts.Logs)

	if schemaCurrent != schemaLatest {
		fmt.Printf("\n%s schema %d of %d; run any command to migrate\n",
			color.YellowString("Note:"), schemaCurrent, schemaLatest)
	}
}
