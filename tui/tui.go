package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nbsql/nbsql/config"
)

// Start initializes the connection store and launches the console.
func Start() error {
	store, err := config.NewConnectionStore()
	if err != nil {
		return fmt.Errorf("failed to load connections: %w", err)
	}

	app := NewApp(store)
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	return err
}
