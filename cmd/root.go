// Package cmd contains all Cobra commands for nbsql.
//
// Design decision: the root command launches the console directly.
// Connection configuration happens inside the TUI, not via CLI flags.
// Running `nbsql` with no arguments starts the interactive console
// with a connection setup screen.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nbsql/nbsql/tui"
)

var rootCmd = &cobra.Command{
	Use:   "nbsql",
	Short: "Interactive SQL console with macros and prepared statements",
	Long: `nbsql is an interactive PostgreSQL console featuring:
  • Text macros with arguments, conditionals and variables (define/invoke)
  • PREPARE / EXECUTE with ?*N placeholder shorthand
  • CALL with output-parameter capture, AUTOCOMMIT / COMMIT / ROLLBACK
  • :name variable substitution with type modifiers
  • Optional SSH tunnel for remote servers

Run 'nbsql' to start the console with a connection setup screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Start()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
