// console.go — the interactive command console.
//
// Every submitted line goes through the interpreter session: macros,
// CALL, PREPARE/EXECUTE, transaction directives and plain SQL all take
// the same path. The console itself only handles input editing, leading
// option letters, backslash meta commands and result rendering.
//
// Options (before the command text):
//
//	-r  raw output (rows-with-header composite plus parameters)
//	-a  display all rows (no truncation)
//	-e  echo the generated SQL
//	-q  quiet (suppress row-count messages)
//	-d  multi-statement block (split on semicolons)
//
// Meta commands:
//
//	\set <name> <value>   set a session variable (:name)
//	\unset <name>         remove a session variable
//	\vars                 list session variables
//	\macros               list defined macros
//	\sample               install the EMPLOYEE/DEPARTMENT sample tables
//	\clear                clear the scrollback
//	\help                 show help
//	\q                    quit
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nbsql/nbsql/applog"
	"github.com/nbsql/nbsql/db"
	"github.com/nbsql/nbsql/engine"
)

// displayLimit caps rendered rows unless the all flag is set.
const displayLimit = 40

// ConsoleView is the connected-phase model.
type ConsoleView struct {
	db      *db.DB
	session *engine.Session
	scroll  *Scrollback

	input   string
	history []string
	histIdx int
	running bool

	// define block capture
	defineName  string
	defineLines []string

	width  int
	height int
}

// NewConsoleView creates the console bound to a fresh interpreter session.
func NewConsoleView(database *db.DB) *ConsoleView {
	return &ConsoleView{
		db:      database,
		session: engine.NewSession(db.NewDriver(database)),
		scroll:  NewScrollback(80, 20),
		histIdx: -1,
	}
}

// Session exposes the interpreter session (used to preload macro files).
func (v *ConsoleView) Session() *engine.Session { return v.session }

// SetSize reserves one line for the prompt and one for slack.
func (v *ConsoleView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.scroll.SetSize(width-2, height-2)
}

func (v *ConsoleView) Init() tea.Cmd { return nil }

func (v *ConsoleView) Update(msg tea.Msg) (*ConsoleView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case CommandDoneMsg:
		v.running = false
		v.renderOutcome(msg)
		return v, nil

	case BootstrapDoneMsg:
		v.running = false
		if msg.Err != nil {
			v.scroll.Append(StyleError.Render("sample data: " + msg.Err.Error()))
		} else {
			v.scroll.Append(StyleSuccess.Render("Sample tables EMPLOYEE and DEPARTMENT installed."))
		}
		return v, nil

	case MacroFileLoadedMsg:
		if msg.Err != nil {
			v.scroll.Append(StyleError.Render("macro file: " + msg.Err.Error()))
		} else {
			v.scroll.Append(StyleDimmed.Render(fmt.Sprintf("Loaded %d macros from profile script.", msg.Count)))
		}
		return v, nil
	}

	return v, nil
}

func (v *ConsoleView) handleKey(msg tea.KeyMsg) (*ConsoleView, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return v, v.submit()

	case "up":
		if len(v.history) > 0 {
			if v.histIdx < len(v.history)-1 {
				v.histIdx++
			}
			v.input = v.history[v.histIdx]
		}
		return v, nil

	case "down":
		if v.histIdx > 0 {
			v.histIdx--
			v.input = v.history[v.histIdx]
		} else {
			v.histIdx = -1
			v.input = ""
		}
		return v, nil

	case "ctrl+k":
		v.scroll.ScrollUp(1)
		return v, nil
	case "ctrl+j":
		v.scroll.ScrollDown(1)
		return v, nil
	case "pgup":
		v.scroll.PageUp()
		return v, nil
	case "pgdown":
		v.scroll.PageDown()
		return v, nil

	case "backspace":
		if len(v.input) > 0 {
			v.input = v.input[:len(v.input)-1]
		}
		return v, nil

	default:
		if len(msg.String()) == 1 || msg.String() == " " {
			v.input += msg.String()
		}
		return v, nil
	}
}

// submit processes the current input line.
func (v *ConsoleView) submit() tea.Cmd {
	input := strings.TrimSpace(v.input)
	v.input = ""

	// Inside a define block: an empty line ends the macro.
	if v.defineName != "" {
		if input == "" {
			return v.finishDefine()
		}
		v.defineLines = append(v.defineLines, input)
		v.scroll.Append(StyleDimmed.Render("  ... ") + input)
		return nil
	}

	if input == "" {
		return nil
	}

	v.history = append([]string{input}, v.history...)
	v.histIdx = -1

	if strings.HasPrefix(input, "\\") {
		return v.handleMetaCommand(input)
	}

	flags, command := parseOptions(input)

	// `define <name>` with no inline body starts block capture.
	fields := strings.Fields(command)
	if len(fields) == 2 && strings.EqualFold(fields[0], "define") {
		v.defineName = fields[1]
		v.defineLines = nil
		v.scroll.Append(StylePrompt.Render("define "+v.defineName) +
			StyleDimmed.Render("  (enter body lines, empty line to finish)"))
		return nil
	}

	return v.runCommand(command, flags)
}

func (v *ConsoleView) finishDefine() tea.Cmd {
	text := "define " + v.defineName + "\n" + strings.Join(v.defineLines, "\n")
	v.defineName = ""
	v.defineLines = nil
	return v.runCommand(text, engine.Flags{})
}

func (v *ConsoleView) runCommand(text string, flags engine.Flags) tea.Cmd {
	v.running = true
	v.scroll.Append(StylePrompt.Render("nbsql> ") + strings.ReplaceAll(text, "\n", " ⏎ "))
	session := v.session

	return func() tea.Msg {
		out, err := session.Run(context.Background(), text, flags)
		if err != nil {
			applog.Event("COMMAND", "failed: %v", err)
		}
		return CommandDoneMsg{Input: text, Flags: flags, Out: out, Err: err}
	}
}

func (v *ConsoleView) handleMetaCommand(cmd string) tea.Cmd {
	parts := strings.Fields(cmd)
	switch parts[0] {
	case "\\set":
		if len(parts) < 3 {
			v.scroll.Append(StyleError.Render("Usage: \\set <name> <value>"))
			return nil
		}
		v.session.SetVariable(parts[1], strings.Join(parts[2:], " "))
		v.scroll.Append(StyleSuccess.Render(fmt.Sprintf("SET %s = %s", parts[1], strings.Join(parts[2:], " "))))
		return nil

	case "\\unset":
		if len(parts) < 2 {
			v.scroll.Append(StyleError.Render("Usage: \\unset <name>"))
			return nil
		}
		v.session.UnsetVariable(parts[1])
		v.scroll.Append(StyleDimmed.Render("UNSET " + parts[1]))
		return nil

	case "\\vars":
		names := v.session.VariableNames()
		if len(names) == 0 {
			v.scroll.Append(StyleDimmed.Render("No variables set."))
			return nil
		}
		for _, name := range names {
			val, _ := v.session.Variable(name)
			v.scroll.Append(fmt.Sprintf("%s = %v", name, val))
		}
		return nil

	case "\\macros":
		names := v.session.Registry.Names()
		if len(names) == 0 {
			v.scroll.Append(StyleDimmed.Render("No macros defined."))
			return nil
		}
		v.scroll.Append(names...)
		return nil

	case "\\sample":
		v.running = true
		database := v.db
		return func() tea.Msg {
			return BootstrapDoneMsg{Err: database.Bootstrap(context.Background())}
		}

	case "\\clear":
		v.scroll.Clear()
		return nil

	case "\\help":
		v.scroll.Append(helpLines()...)
		return nil

	case "\\q", "\\quit":
		return requestQuit

	default:
		v.scroll.Append(StyleError.Render("Unknown command: " + cmd))
		return nil
	}
}

// renderOutcome writes one command's result into the scrollback.
func (v *ConsoleView) renderOutcome(msg CommandDoneMsg) {
	if msg.Err != nil {
		v.scroll.Append(StyleError.Render("ERROR: " + msg.Err.Error()))
		return
	}
	out := msg.Out

	if msg.Flags.Echo && out.SQL != "" {
		for _, line := range strings.Split(out.SQL, "\n") {
			v.scroll.Append(StyleDimmed.Render("-- " + line))
		}
	}

	for _, m := range out.Messages {
		v.scroll.Append(StyleNormal.Render(m))
	}

	if out.Result != nil {
		v.scroll.Append(v.formatResult(out.Result, msg.Flags)...)
	}

	if msg.Flags.Raw || out.Result == nil {
		for i, p := range out.Params {
			v.scroll.Append(StyleDimmed.Render(fmt.Sprintf("parameter %d: ", i+1)) + fmt.Sprintf("%v", p))
		}
	}
}

// formatResult renders a result set as an aligned table.
func (v *ConsoleView) formatResult(r *engine.ResultSet, flags engine.Flags) []string {
	rows := r.Rows
	truncated := 0
	if !flags.All && len(rows) > displayLimit {
		truncated = len(rows) - displayLimit
		rows = rows[:displayLimit]
	}

	cells := make([][]string, len(rows))
	widths := make([]int, len(r.Columns))
	for i, col := range r.Columns {
		widths[i] = len(col)
	}
	for ri, row := range rows {
		cells[ri] = make([]string, len(row))
		for ci, val := range row {
			text := fmt.Sprintf("%v", val)
			if val == nil {
				text = "null"
			}
			cells[ri][ci] = text
			if ci < len(widths) && len(text) > widths[ci] {
				widths[ci] = len(text)
			}
		}
	}
	for i := range widths {
		if widths[i] > 50 {
			widths[i] = 50
		}
	}

	var lines []string
	header := ""
	separator := ""
	for i, col := range r.Columns {
		header += fmt.Sprintf(" %-*s │", widths[i], col)
		separator += strings.Repeat("─", widths[i]+1) + "┼"
	}
	lines = append(lines, StyleSuccess.Render(strings.TrimRight(header, "│")))
	lines = append(lines, StyleDimmed.Render(strings.TrimRight(separator, "┼")))

	for _, row := range cells {
		line := ""
		for i, cell := range row {
			if i < len(widths) {
				if len(cell) > widths[i] {
					cell = cell[:widths[i]-1] + "…"
				}
				line += fmt.Sprintf(" %-*s │", widths[i], cell)
			}
		}
		lines = append(lines, strings.TrimRight(line, "│"))
	}

	if truncated > 0 {
		lines = append(lines, StyleDimmed.Render(fmt.Sprintf("... %d more rows (use -a to show all)", truncated)))
	}
	return lines
}

func (v *ConsoleView) View() string {
	prompt := StylePrompt.Render("nbsql> ") + v.input + "█"
	if v.running {
		prompt = StylePrompt.Render("nbsql> ") + StyleDimmed.Render("executing...")
	}
	if v.defineName != "" {
		prompt = StylePrompt.Render("  ... ") + v.input + "█"
	}

	return lipgloss.JoinVertical(lipgloss.Left, v.scroll.Render(), "", prompt)
}

// ShortHelp returns key bindings for the status bar.
func (v *ConsoleView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "Enter", Desc: "run"},
		{Key: "↑/↓", Desc: "history"},
		{Key: "Ctrl+K/J", Desc: "scroll"},
		{Key: "\\help", Desc: "commands"},
	}
}

// parseOptions strips leading `-x` option groups off the command text.
func parseOptions(input string) (engine.Flags, string) {
	var flags engine.Flags
	rest := input
	for {
		fields := strings.SplitN(strings.TrimSpace(rest), " ", 2)
		word := fields[0]
		if len(word) < 2 || word[0] != '-' {
			break
		}
		recognized := true
		for _, c := range word[1:] {
			switch c {
			case 'r':
				flags.Raw = true
			case 'a':
				flags.All = true
			case 'e':
				flags.Echo = true
			case 'q':
				flags.Quiet = true
			case 'd':
				flags.MultiStatement = true
			default:
				recognized = false
			}
		}
		if !recognized {
			break
		}
		if len(fields) < 2 {
			rest = ""
			break
		}
		rest = fields[1]
	}
	return flags, strings.TrimSpace(rest)
}

func helpLines() []string {
	return []string{
		StyleTitle.Render("nbsql commands"),
		StyleHelpKey.Render("define <name>") + "            start a macro definition (empty line ends it)",
		StyleHelpKey.Render("<macro> [args]") + "           invoke a macro",
		StyleHelpKey.Render("PREPARE <sql>") + "            prepare a statement (? and ?*N placeholders)",
		StyleHelpKey.Render("EXECUTE <h> USING ...") + "    run a prepared statement",
		StyleHelpKey.Render("CALL <proc>(...)") + "         call a stored procedure",
		StyleHelpKey.Render("AUTOCOMMIT ON|OFF") + "        toggle implicit commits",
		StyleHelpKey.Render("COMMIT [WORK|HOLD]") + "       commit (HOLD keeps statements open)",
		StyleHelpKey.Render("ROLLBACK") + "                 roll back",
		"",
		StyleHelpKey.Render("options") + "   -r raw  -a all rows  -e echo SQL  -q quiet  -d multi-statement",
		StyleHelpKey.Render("meta") + "      \\set \\unset \\vars \\macros \\sample \\clear \\help \\q",
	}
}
