// Package commands wires the CLI surface. Every command emits one JSON
// envelope on stdout; diagnostics go to stderr as structured logs.
package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dotcommander/agentflow/internal/app"
	"github.com/dotcommander/agentflow/internal/output"
)

// addGlobalFlags registers the flags every command inherits.
func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String("db-path", "", "Override database path")
	fs.StringP("user", "u", "", "Acting user id (default: $AGENTFLOW_USER)")
	fs.String("request-id", "", "Idempotency key for mutating operations (default: $AGENTFLOW_REQUEST_ID)")
}

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "agentflow",
		Short:         "Agent task engine (tasks, human-blocking dependencies, activity log)",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}

			// Wire --db-path into app-level resolver.
			if dbPath, err := cmd.Flags().GetString("db-path"); err == nil && dbPath != "" {
				app.SetDBPathOverride(dbPath)
			}

			return nil
		},
	}

	addGlobalFlags(root.PersistentFlags())
	root.Flags().BoolP("version", "v", false, "version for agentflow")

	root.AddCommand(NewAgentCmd())
	root.AddCommand(NewTaskCmd())
	root.AddCommand(NewDependencyCmd())
	root.AddCommand(NewGenerateCmd())
	root.AddCommand(NewLogCmd())
	root.AddCommand(NewStatusCmd())

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}
