// connect.go is the connection form shown before a session starts.
//
// The form edits one Connection profile at a time. Saved profiles from
// ~/.nbsql/connections.json can be cycled into the form, edited, saved
// back, and connected to. Connecting runs asynchronously so a slow or
// unreachable host never freezes the UI.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nbsql/nbsql/config"
	"github.com/nbsql/nbsql/db"
)

const connectTimeout = 15 * time.Second

// form field indices, in display order
const (
	fieldName = iota
	fieldHost
	fieldPort
	fieldUser
	fieldPassword
	fieldDatabase
	fieldSSLMode
	fieldMacroFile
	fieldSSHEnabled
	fieldSSHHost
	fieldSSHPort
	fieldSSHUser
	fieldSSHPassword
	fieldSSHKeyPath
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Name", "Host", "Port", "User", "Password", "Database", "SSL Mode",
	"Macro File", "SSH Tunnel", "SSH Host", "SSH Port", "SSH User",
	"SSH Password", "SSH Key Path",
}

// ConnectView is the connection-phase model.
type ConnectView struct {
	store   *config.ConnectionStore
	conn    config.Connection
	focus   int
	profile int // index into store.Connections, -1 = new
	busy    bool
	errMsg  string
	saved   string

	width  int
	height int
}

// NewConnectView creates the form, preloading the first saved profile
// if one exists.
func NewConnectView(store *config.ConnectionStore) *ConnectView {
	v := &ConnectView{
		store:   store,
		conn:    config.DefaultConnection(),
		profile: -1,
		focus:   fieldHost,
	}
	if len(store.Connections) > 0 {
		v.profile = 0
		v.conn = store.Connections[0]
	}
	return v
}

func (v *ConnectView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *ConnectView) Init() tea.Cmd { return nil }

func (v *ConnectView) Update(msg tea.Msg) (*ConnectView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		return v.handleKey(msg)

	case ConnectErrorMsg:
		v.busy = false
		v.errMsg = msg.Err.Error()
		return v, nil
	}
	return v, nil
}

func (v *ConnectView) handleKey(msg tea.KeyMsg) (*ConnectView, tea.Cmd) {
	v.saved = ""
	switch msg.String() {
	case "tab", "down":
		v.focus = (v.focus + 1) % fieldCount
		return v, nil
	case "shift+tab", "up":
		v.focus = (v.focus + fieldCount - 1) % fieldCount
		return v, nil

	case "ctrl+p":
		v.cycleProfile()
		return v, nil

	case "ctrl+s":
		if v.conn.Name == "" {
			v.errMsg = "profile needs a name before saving"
			return v, nil
		}
		v.store.Add(v.conn)
		if err := v.store.Save(); err != nil {
			v.errMsg = err.Error()
		} else {
			v.errMsg = ""
			v.saved = v.conn.Name
		}
		return v, nil

	case "enter":
		if v.focus == fieldSSHEnabled {
			v.conn.SSH.Enabled = !v.conn.SSH.Enabled
			return v, nil
		}
		v.busy = true
		v.errMsg = ""
		return v, connectCmd(v.conn)

	case " ":
		if v.focus == fieldSSHEnabled {
			v.conn.SSH.Enabled = !v.conn.SSH.Enabled
			return v, nil
		}
		v.editField(" ")
		return v, nil

	case "backspace":
		cur := v.fieldValue()
		if len(cur) > 0 {
			v.setFieldValue(cur[:len(cur)-1])
		}
		return v, nil

	default:
		if len(msg.String()) == 1 {
			v.editField(msg.String())
		}
		return v, nil
	}
}

func (v *ConnectView) cycleProfile() {
	if len(v.store.Connections) == 0 {
		return
	}
	v.profile++
	if v.profile >= len(v.store.Connections) {
		v.profile = -1
		v.conn = config.DefaultConnection()
		return
	}
	v.conn = v.store.Connections[v.profile]
}

func (v *ConnectView) editField(s string) {
	if v.focus == fieldSSHEnabled {
		return
	}
	v.setFieldValue(v.fieldValue() + s)
}

func (v *ConnectView) fieldValue() string {
	switch v.focus {
	case fieldName:
		return v.conn.Name
	case fieldHost:
		return v.conn.Host
	case fieldPort:
		return v.conn.Port
	case fieldUser:
		return v.conn.User
	case fieldPassword:
		return v.conn.Password
	case fieldDatabase:
		return v.conn.Database
	case fieldSSLMode:
		return v.conn.SSLMode
	case fieldMacroFile:
		return v.conn.MacroFile
	case fieldSSHHost:
		return v.conn.SSH.Host
	case fieldSSHPort:
		return v.conn.SSH.Port
	case fieldSSHUser:
		return v.conn.SSH.User
	case fieldSSHPassword:
		return v.conn.SSH.Password
	case fieldSSHKeyPath:
		return v.conn.SSH.KeyPath
	}
	return ""
}

func (v *ConnectView) setFieldValue(val string) {
	switch v.focus {
	case fieldName:
		v.conn.Name = val
	case fieldHost:
		v.conn.Host = val
	case fieldPort:
		v.conn.Port = val
	case fieldUser:
		v.conn.User = val
	case fieldPassword:
		v.conn.Password = val
	case fieldDatabase:
		v.conn.Database = val
	case fieldSSLMode:
		v.conn.SSLMode = val
	case fieldMacroFile:
		v.conn.MacroFile = val
	case fieldSSHHost:
		v.conn.SSH.Host = val
	case fieldSSHPort:
		v.conn.SSH.Port = val
	case fieldSSHUser:
		v.conn.SSH.User = val
	case fieldSSHPassword:
		v.conn.SSH.Password = val
	case fieldSSHKeyPath:
		v.conn.SSH.KeyPath = val
	}
}

func (v *ConnectView) displayValue(field int) string {
	focus := v.focus
	v.focus = field
	val := v.fieldValue()
	v.focus = focus

	switch field {
	case fieldPassword, fieldSSHPassword:
		return strings.Repeat("*", len(val))
	case fieldSSHEnabled:
		if v.conn.SSH.Enabled {
			return "yes"
		}
		return "no"
	}
	return val
}

func (v *ConnectView) View() string {
	var b strings.Builder

	title := "New Connection"
	if v.profile >= 0 {
		title = "Profile: " + v.store.Connections[v.profile].Name
	}
	b.WriteString(StyleTitle.Render(title) + "\n")

	for f := 0; f < fieldCount; f++ {
		if f >= fieldSSHHost && !v.conn.SSH.Enabled {
			continue
		}
		label := fieldLabels[f]
		line := StyleDimmed.Render(padRight(label, 14)) + v.displayValue(f)
		if f == v.focus {
			line = StyleInputFocused.Render(padRight(label, 14)) + v.displayValue(f) + "█"
		}
		b.WriteString("  " + line + "\n")
	}

	if v.busy {
		b.WriteString("\n" + StyleDimmed.Render("Connecting..."))
	}
	if v.errMsg != "" {
		b.WriteString("\n" + StyleError.Render(v.errMsg))
	}
	if v.saved != "" {
		b.WriteString("\n" + StyleSuccess.Render("Saved profile "+v.saved+"."))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// ShortHelp returns key bindings for the status bar.
func (v *ConnectView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "Enter", Desc: "connect"},
		{Key: "Tab", Desc: "next field"},
		{Key: "Ctrl+S", Desc: "save profile"},
		{Key: "Ctrl+P", Desc: "cycle profiles"},
	}
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

// connectCmd dials the database off the UI goroutine.
func connectCmd(conn config.Connection) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		cfg := conn.ToConfig()
		database, err := db.Connect(ctx, cfg)
		if err != nil {
			return ConnectErrorMsg{Err: err}
		}
		return ConnectedMsg{DB: database, Cfg: cfg, Conn: conn}
	}
}
