// messages.go defines Bubble Tea messages used for async communication.
//
// Connection attempts and command execution run as tea.Cmd functions and
// report back through these types, so the UI never blocks on the driver.
package tui

import (
	"github.com/nbsql/nbsql/config"
	"github.com/nbsql/nbsql/db"
	"github.com/nbsql/nbsql/engine"
)

// ConnectedMsg is sent when a database connection succeeds.
type ConnectedMsg struct {
	DB   *db.DB
	Cfg  config.Config
	Conn config.Connection
}

// ConnectErrorMsg is sent when a connection attempt fails.
type ConnectErrorMsg struct {
	Err error
}

// CommandDoneMsg is sent when one interpreter command finishes.
type CommandDoneMsg struct {
	Input string
	Flags engine.Flags
	Out   *engine.Outcome
	Err   error
}

// BootstrapDoneMsg is sent when the sample-data installation finishes.
type BootstrapDoneMsg struct {
	Err error
}

// MacroFileLoadedMsg is sent after loading a profile's macro script.
type MacroFileLoadedMsg struct {
	Count int
	Err   error
}
