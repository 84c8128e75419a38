// app.go is the root Bubble Tea model.
//
// The application has two phases: a connection form, then the command
// console. The root model owns the window size and the status bar and
// forwards everything else to the active phase.
package tui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nbsql/nbsql/applog"
	"github.com/nbsql/nbsql/config"
	"github.com/nbsql/nbsql/db"
	"github.com/nbsql/nbsql/engine"
)

// Phase identifies which view is active.
type Phase int

const (
	PhaseConnect Phase = iota
	PhaseMain
)

// quitRequestMsg asks the root model to clean up and exit. Views send it
// instead of tea.Quit so the pool and log file are closed first.
type quitRequestMsg struct{}

func requestQuit() tea.Msg { return quitRequestMsg{} }

// KeyBinding is one entry in the status bar help line.
type KeyBinding struct {
	Key  string
	Desc string
}

// App is the root model.
type App struct {
	phase   Phase
	connect *ConnectView
	console *ConsoleView

	database *db.DB
	connName string

	width  int
	height int
}

// NewApp creates the root model starting at the connection form.
func NewApp(store *config.ConnectionStore) *App {
	return &App{
		phase:   PhaseConnect,
		connect: NewConnectView(store),
	}
}

func (a *App) Init() tea.Cmd {
	return a.connect.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.connect.SetSize(msg.Width, a.contentHeight())
		if a.console != nil {
			a.console.SetSize(msg.Width, a.contentHeight())
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.shutdown()
			return a, tea.Quit
		}

	case quitRequestMsg:
		a.shutdown()
		return a, tea.Quit

	case ConnectedMsg:
		a.database = msg.DB
		a.connName = connectionLabel(msg.Conn, msg.Cfg)
		a.console = NewConsoleView(msg.DB)
		a.console.SetSize(a.width, a.contentHeight())
		a.phase = PhaseMain
		applog.Event("CONNECT", "connected to %s", a.connName)
		if msg.Conn.MacroFile != "" {
			return a, loadMacroFile(a.console.Session(), msg.Conn.MacroFile)
		}
		return a, nil
	}

	switch a.phase {
	case PhaseConnect:
		var cmd tea.Cmd
		a.connect, cmd = a.connect.Update(msg)
		return a, cmd
	default:
		var cmd tea.Cmd
		a.console, cmd = a.console.Update(msg)
		return a, cmd
	}
}

func (a *App) View() string {
	var body string
	var help []KeyBinding
	switch a.phase {
	case PhaseConnect:
		body = a.connect.View()
		help = a.connect.ShortHelp()
	default:
		body = a.console.View()
		help = a.console.ShortHelp()
	}

	header := StyleTitle.Render("nbsql")
	if a.connName != "" {
		header += StyleDimmed.Render("  " + a.connName)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, a.statusBar(help))
}

func (a *App) contentHeight() int {
	// header (2 with margin) + status bar (1)
	h := a.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

func (a *App) statusBar(help []KeyBinding) string {
	parts := make([]string, 0, len(help)+1)
	for _, kb := range help {
		parts = append(parts, StyleHelpKey.Render(kb.Key)+StyleHelpDesc.Render(" "+kb.Desc))
	}
	parts = append(parts, StyleHelpKey.Render("Ctrl+C")+StyleHelpDesc.Render(" quit"))
	return StyleStatusBar.Render(strings.Join(parts, "  "))
}

func (a *App) shutdown() {
	if a.database != nil {
		a.database.Close()
	}
	applog.Close()
}

// loadMacroFile reads a profile's macro script into the session registry.
func loadMacroFile(session *engine.Session, path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return MacroFileLoadedMsg{Err: err}
		}
		count, err := engine.DefineFromScript(session.Registry, string(data))
		return MacroFileLoadedMsg{Count: count, Err: err}
	}
}

func connectionLabel(conn config.Connection, cfg config.Config) string {
	if conn.Name != "" {
		return conn.Name
	}
	return fmt.Sprintf("%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)
}
