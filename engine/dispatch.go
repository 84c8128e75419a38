// dispatch.go classifies incoming command text and routes it.
//
// Design decisions:
//   - All session-wide state (macro registry, autocommit flag, session
//     variables, live prepared statements) lives on an explicit Session
//     object. Nothing is package-level, so concurrent sessions can coexist
//     by simply not sharing Sessions.
//   - Classification is a single step producing a closed Command variant;
//     Run switches exhaustively over it. First match wins, in the fixed
//     order: AUTOCOMMIT, COMMIT, ROLLBACK, PREPARE, EXECUTE, CALL, define,
//     macro invocation, plain SQL.
//   - Macro output is re-dispatched as plain SQL only — never as another
//     macro or CALL.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Flags are the per-command capability switches. How they are spelled on
// the command line is the caller's concern.
type Flags struct {
	Raw            bool // surface the full rows+parameters composite
	All            bool // no display row limit (rendering hint, passed through)
	Echo           bool // report the final SQL sent to the driver
	Quiet          bool // suppress row-count status messages
	MultiStatement bool // split the input on semicolons and run each part
}

// PreparedStatement is the engine's record of a live prepared statement.
type PreparedStatement struct {
	Handle         string
	ParameterCount int
	Text           string // statement text after shorthand expansion
}

// CommandKind tags the classified command variants.
type CommandKind int

const (
	KindSQL CommandKind = iota
	KindAutocommit
	KindCommit
	KindRollback
	KindPrepare
	KindExecute
	KindCall
	KindDefine
	KindInvoke
)

// Command is the result of classifying one piece of input text.
type Command struct {
	Kind CommandKind
	Text string   // full original text
	Arg  string   // remainder after the leading keyword
	Name string   // macro or procedure name, when applicable
	Body []string // macro body lines for a define
}

// Outcome is what running one command produced.
type Outcome struct {
	Result   *ResultSet // primary result set, nil when none
	Params   []any      // output / input-output parameter values, in order
	Messages []string   // echo, exit and status lines, in order
	SQL      string     // final SQL sent to the driver (set when Flags.Echo)
	Handle   string     // statement handle returned by PREPARE
}

// Session is one interpreter session: a macro registry, transaction state,
// variable table and prepared-statement table bound to one driver.
// Sessions are not safe for concurrent use; give each user their own.
type Session struct {
	driver    Driver
	Registry  *Registry
	vars      map[string]any
	prepared  map[string]*PreparedStatement
	auto      bool
	handleSeq int
}

// NewSession creates a session with autocommit on, matching the driver's
// starting state.
func NewSession(d Driver) *Session {
	return &Session{
		driver:   d,
		Registry: NewRegistry(),
		vars:     make(map[string]any),
		prepared: make(map[string]*PreparedStatement),
		auto:     true,
	}
}

// SetVariable stores a session variable for `:name` resolution. Values may
// be scalars or ordered containers (slices).
func (s *Session) SetVariable(name string, value any) {
	s.vars[strings.ToLower(name)] = value
}

// Variable looks up a session variable.
func (s *Session) Variable(name string) (any, bool) {
	v, ok := s.vars[strings.ToLower(name)]
	return v, ok
}

// UnsetVariable removes a session variable.
func (s *Session) UnsetVariable(name string) {
	delete(s.vars, strings.ToLower(name))
}

// VariableNames returns the names of all set variables, unsorted.
func (s *Session) VariableNames() []string {
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	return names
}

// Autocommit reports the session's implicit-commit mode.
func (s *Session) Autocommit() bool { return s.auto }

// classify produces the Command variant for text. The registry is
// consulted last so statement keywords always win over macro names.
func (s *Session) classify(text string) Command {
	text = strings.TrimSpace(text)
	firstLine, rest, multiline := strings.Cut(text, "\n")
	fields := strings.Fields(firstLine)
	if len(fields) == 0 {
		return Command{Kind: KindSQL, Text: text}
	}

	keyword := strings.ToUpper(fields[0])
	afterKeyword := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(firstLine), fields[0]))

	switch keyword {
	case "AUTOCOMMIT":
		return Command{Kind: KindAutocommit, Text: text, Arg: afterKeyword}
	case "COMMIT":
		return Command{Kind: KindCommit, Text: text, Arg: afterKeyword}
	case "ROLLBACK":
		return Command{Kind: KindRollback, Text: text, Arg: afterKeyword}
	case "PREPARE":
		return Command{Kind: KindPrepare, Text: text, Arg: strings.TrimSpace(strings.TrimPrefix(text, fields[0]))}
	case "EXECUTE":
		return Command{Kind: KindExecute, Text: text, Arg: strings.TrimSpace(strings.TrimPrefix(text, fields[0]))}
	case "CALL":
		return Command{Kind: KindCall, Text: text, Arg: strings.TrimSpace(strings.TrimPrefix(text, fields[0]))}
	case "DEFINE":
		name := ""
		if len(fields) > 1 {
			name = fields[1]
		}
		var body []string
		if multiline {
			body = strings.Split(rest, "\n")
		}
		return Command{Kind: KindDefine, Text: text, Name: name, Body: body}
	}

	if _, ok := s.Registry.Lookup(fields[0]); ok {
		return Command{Kind: KindInvoke, Text: text, Name: fields[0]}
	}
	return Command{Kind: KindSQL, Text: text}
}

// Run classifies and executes one command. Structural and binding errors
// abort before any driver call; driver errors pass through verbatim.
func (s *Session) Run(ctx context.Context, text string, flags Flags) (*Outcome, error) {
	cmd := s.classify(text)
	out := &Outcome{}

	switch cmd.Kind {
	case KindAutocommit:
		return out, s.runAutocommit(cmd, out)

	case KindCommit:
		return out, s.runCommit(ctx, cmd, out, flags)

	case KindRollback:
		if err := s.driver.Rollback(ctx); err != nil {
			return nil, err
		}
		s.invalidateStatements()
		if !flags.Quiet {
			out.Messages = append(out.Messages, "Rollback completed.")
		}
		return out, nil

	case KindDefine:
		if cmd.Name == "" {
			return nil, fmt.Errorf("define requires a macro name")
		}
		if err := s.Registry.Define(cmd.Name, cmd.Body); err != nil {
			return nil, err
		}
		if !flags.Quiet {
			out.Messages = append(out.Messages, fmt.Sprintf("Macro %s defined.", cmd.Name))
		}
		return out, nil

	case KindPrepare:
		return out, s.runPrepare(ctx, cmd, out, flags)

	case KindExecute:
		return out, s.runExecute(ctx, cmd, out, flags)

	case KindCall:
		return out, s.runCall(ctx, cmd, out, flags)

	case KindInvoke:
		return s.runInvoke(ctx, cmd, flags)

	default:
		return out, s.runSQL(ctx, cmd.Text, out, flags)
	}
}

func (s *Session) runAutocommit(cmd Command, out *Outcome) error {
	switch strings.ToUpper(cmd.Arg) {
	case "ON":
		s.auto = true
	case "OFF":
		s.auto = false
	default:
		return fmt.Errorf("AUTOCOMMIT requires ON or OFF, got %q", cmd.Arg)
	}
	s.driver.Autocommit(s.auto)
	out.Messages = append(out.Messages, fmt.Sprintf("Autocommit %s.", strings.ToUpper(cmd.Arg)))
	return nil
}

func (s *Session) runCommit(ctx context.Context, cmd Command, out *Outcome, flags Flags) error {
	hold := false
	switch strings.ToUpper(cmd.Arg) {
	case "", "WORK":
	case "HOLD":
		hold = true
	default:
		return fmt.Errorf("COMMIT accepts WORK or HOLD, got %q", cmd.Arg)
	}
	if err := s.driver.Commit(ctx, hold); err != nil {
		return err
	}
	// A plain commit closes all open statements and cursors; HOLD keeps
	// them alive.
	if !hold {
		s.invalidateStatements()
	}
	if !flags.Quiet {
		out.Messages = append(out.Messages, "Commit completed.")
	}
	return nil
}

func (s *Session) runPrepare(ctx context.Context, cmd Command, out *Outcome, flags Flags) error {
	sql, args := inlineVariables(cmd.Arg, s.vars)
	if len(args) > 0 {
		return fmt.Errorf("bare variable references are not allowed in PREPARE; use ? placeholders")
	}
	sql, count := expandPlaceholders(sql)

	handle, err := s.driver.Prepare(ctx, sql)
	if err != nil {
		return err
	}
	s.handleSeq++
	if handle == "" {
		handle = "S" + strconv.Itoa(s.handleSeq)
	}
	s.prepared[handle] = &PreparedStatement{Handle: handle, ParameterCount: count, Text: sql}

	out.Handle = handle
	if flags.Echo {
		out.SQL = sql
	}
	if !flags.Quiet {
		out.Messages = append(out.Messages, fmt.Sprintf("Statement %s prepared (%d parameters).", handle, count))
	}
	return nil
}

func (s *Session) runExecute(ctx context.Context, cmd Command, out *Outcome, flags Flags) error {
	handleRef, usingClause := splitUsing(cmd.Arg)
	if handleRef == "" {
		return fmt.Errorf("EXECUTE requires a statement handle")
	}

	handle := handleRef
	if strings.HasPrefix(handleRef, ":") {
		name, _ := scanIdent(handleRef, 1)
		val, ok := s.Variable(name)
		if !ok {
			return fmt.Errorf("variable :%s is not set", name)
		}
		handle = fmt.Sprintf("%v", val)
	}

	stmt, ok := s.prepared[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStatementHandle, handle)
	}

	args, err := resolveUsing(usingClause, s.vars)
	if err != nil {
		return err
	}
	if len(args) != stmt.ParameterCount {
		return fmt.Errorf("%w: statement %s wants %d parameters, got %d",
			ErrParameterCountMismatch, handle, stmt.ParameterCount, len(args))
	}

	res, err := s.driver.ExecutePrepared(ctx, handle, args)
	if err != nil {
		return err
	}
	out.Result = res
	if flags.Echo {
		out.SQL = stmt.Text
	}
	s.appendStatus(out, res, flags)
	return nil
}

func (s *Session) runCall(ctx context.Context, cmd Command, out *Outcome, flags Flags) error {
	name, argList, err := splitCall(cmd.Arg)
	if err != nil {
		return err
	}
	args, err := resolveUsing(argList, s.vars)
	if err != nil {
		return err
	}

	res, params, err := s.driver.Call(ctx, name, args)
	if err != nil {
		return err
	}
	out.Result = res
	out.Params = params
	s.appendStatus(out, res, flags)
	return nil
}

func (s *Session) runInvoke(ctx context.Context, cmd Command, flags Flags) (*Outcome, error) {
	macro, _ := s.Registry.Lookup(cmd.Name)
	tokens := Tokenize(cmd.Text)
	scope := NewScope(cmd.Text, tokens)

	exp, err := s.Registry.Expand(macro, scope)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Messages: exp.Messages}
	if exp.Exited || strings.TrimSpace(exp.SQL) == "" {
		return out, nil
	}

	// Generated SQL is always plain SQL: no macro or CALL re-entry.
	if err := s.runSQL(ctx, exp.SQL, out, flags); err != nil {
		return nil, err
	}
	return out, nil
}

// runSQL forwards literal SQL to the driver, after :name substitution. In
// multi-statement mode the block is split on unquoted semicolons and the
// parts run in order; a failure leaves earlier statements applied.
func (s *Session) runSQL(ctx context.Context, text string, out *Outcome, flags Flags) error {
	statements := []string{text}
	if flags.MultiStatement {
		statements = splitStatements(text)
	}

	var sent []string
	for _, stmt := range statements {
		sql, args := inlineVariables(stmt, s.vars)
		sent = append(sent, sql)

		res, err := s.driver.Execute(ctx, sql, args)
		if err != nil {
			if flags.Echo {
				out.SQL = strings.Join(sent, ";\n")
			}
			return err
		}
		if res != nil {
			out.Result = res
			s.appendStatus(out, res, flags)
		}
	}
	if flags.Echo {
		out.SQL = strings.Join(sent, ";\n")
	}
	return nil
}

func (s *Session) appendStatus(out *Outcome, res *ResultSet, flags Flags) {
	if flags.Quiet || res == nil || res.Status == "" {
		return
	}
	out.Messages = append(out.Messages, res.Status)
}

// invalidateStatements drops every live prepared-statement handle.
// A later EXECUTE against one fails with ErrUnknownStatementHandle.
func (s *Session) invalidateStatements() {
	s.prepared = make(map[string]*PreparedStatement)
}

// splitUsing separates "<handle> USING <args>" into its two parts.
func splitUsing(arg string) (string, string) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return "", ""
	}
	handle := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(arg), handle))
	if rest == "" {
		return handle, ""
	}
	restFields := strings.Fields(rest)
	if len(restFields) > 0 && strings.EqualFold(restFields[0], "USING") {
		return handle, strings.TrimSpace(strings.TrimPrefix(rest, restFields[0]))
	}
	return handle, ""
}

// splitCall separates "name(arg, arg)" into the procedure name and its
// argument list text. A bare "name" has an empty list.
func splitCall(arg string) (string, string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", "", fmt.Errorf("CALL requires a procedure name")
	}
	open := strings.IndexByte(arg, '(')
	if open < 0 {
		return arg, "", nil
	}
	name := strings.TrimSpace(arg[:open])
	rest := strings.TrimSpace(arg[open:])
	if !strings.HasSuffix(rest, ")") {
		return "", "", fmt.Errorf("CALL %s: unterminated argument list", name)
	}
	return name, rest[1 : len(rest)-1], nil
}
