// nbsql – interactive PostgreSQL console with a text macro engine.
//
// Entry point: initializes the Cobra root command and launches
// the Bubble Tea console by default (no subcommand required).
package main

import (
	"os"

	"github.com/nbsql/nbsql/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
