package engine

import (
	"errors"
	"strings"
	"testing"
)

// expand is a test helper: define the macro, invoke it with the given
// command line, and return the expansion.
func expand(t *testing.T, body []string, line string) *Expansion {
	t.Helper()
	reg := NewRegistry()
	name := strings.Fields(line)[0]
	if err := reg.Define(name, body); err != nil {
		t.Fatalf("Define: %v", err)
	}
	m, _ := reg.Lookup(name)
	exp, err := reg.Expand(m, NewScope(line, Tokenize(line)))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	return exp
}

func TestPositionalSubstitution(t *testing.T) {
	exp := expand(t, []string{"SELECT {1} FROM EMPLOYEE"}, "emptable lastname")
	if exp.SQL != "SELECT lastname FROM EMPLOYEE" {
		t.Errorf("SQL = %q", exp.SQL)
	}
}

func TestTailCapture(t *testing.T) {
	exp := expand(t, []string{"SELECT * FROM EMPLOYEE {*1}"}, "emptable where empno = '000010'")
	if exp.SQL != "SELECT * FROM EMPLOYEE where empno = '000010'" {
		t.Errorf("SQL = %q", exp.SQL)
	}

	// A tail past the last token renders empty, without error.
	exp = expand(t, []string{"SELECT * FROM EMPLOYEE {*1}"}, "emptable")
	if exp.SQL != "SELECT * FROM EMPLOYEE " {
		t.Errorf("SQL = %q", exp.SQL)
	}
}

func TestArgcSubstitution(t *testing.T) {
	exp := expand(t, []string{"echo {argc}"}, "showvar hello there everyone")
	if len(exp.Messages) != 1 || exp.Messages[0] != "3" {
		t.Errorf("messages = %v, want [3]", exp.Messages)
	}

	exp = expand(t, []string{"echo {argc}"}, "showvar")
	if len(exp.Messages) != 1 || exp.Messages[0] != "0" {
		t.Errorf("messages = %v, want [0]", exp.Messages)
	}
}

func TestUppercaseModifier(t *testing.T) {
	exp := expand(t, []string{"echo {^1}"}, "up hello")
	if exp.Messages[0] != "HELLO" {
		t.Errorf("messages = %v", exp.Messages)
	}
}

func TestUndefinedReferences(t *testing.T) {
	// {n} past argc and unknown {name} render the literal null and continue.
	exp := expand(t, []string{"SELECT {5} AND {nothere}"}, "m one two")
	if exp.SQL != "SELECT null AND null" {
		t.Errorf("SQL = %q", exp.SQL)
	}
}

func TestMalformedBraceIsLiteral(t *testing.T) {
	exp := expand(t, []string{"SELECT {bad-name} FROM {1}"}, "m t1")
	if exp.SQL != "SELECT {bad-name} FROM t1" {
		t.Errorf("SQL = %q", exp.SQL)
	}
}

func TestSubstitutionIsSinglePass(t *testing.T) {
	// A substituted value containing braces is not rescanned.
	exp := expand(t, []string{"SELECT {1}"}, "m {argc}")
	if exp.SQL != "SELECT {argc}" {
		t.Errorf("SQL = %q", exp.SQL)
	}
}

func TestVarAssignment(t *testing.T) {
	body := []string{
		"var greeting Hello {1}",
		"echo {greeting}",
		"var quoted 'kept as-is'",
		"echo {quoted}",
	}
	exp := expand(t, body, "m world")
	if exp.Messages[0] != "Hello world" {
		t.Errorf("greeting = %q", exp.Messages[0])
	}
	// The value is the literal remainder of the line, quotes included.
	if exp.Messages[1] != "'kept as-is'" {
		t.Errorf("quoted = %q", exp.Messages[1])
	}
}

func TestExitDiscardsSQL(t *testing.T) {
	body := []string{
		"echo A",
		"SELECT * FROM T",
		"exit msg",
		"echo B",
	}
	exp := expand(t, body, "m")
	if !exp.Exited {
		t.Fatal("expected Exited")
	}
	if exp.SQL != "" {
		t.Errorf("SQL = %q, want discarded", exp.SQL)
	}
	if len(exp.Messages) != 2 || exp.Messages[0] != "A" || exp.Messages[1] != "msg" {
		t.Errorf("messages = %v, want [A msg]", exp.Messages)
	}
}

func TestReturnFinalizesSQL(t *testing.T) {
	body := []string{
		"echo A",
		"SELECT * FROM T",
		"return",
		"echo B",
	}
	exp := expand(t, body, "m")
	if exp.Exited {
		t.Fatal("return must not discard")
	}
	if exp.SQL != "SELECT * FROM T" {
		t.Errorf("SQL = %q", exp.SQL)
	}
	if len(exp.Messages) != 1 || exp.Messages[0] != "A" {
		t.Errorf("messages = %v, want [A]", exp.Messages)
	}
}

func TestConditionalBranching(t *testing.T) {
	body := []string{
		"if {argc} = 0",
		"   exit no arguments",
		"else",
		"   echo {argc}",
		"endif",
		"SELECT 1",
	}

	exp := expand(t, body, "m")
	if !exp.Exited || exp.Messages[0] != "no arguments" {
		t.Errorf("zero-token invocation: exited=%v messages=%v", exp.Exited, exp.Messages)
	}

	exp = expand(t, body, "m a b")
	if exp.Exited {
		t.Fatal("two-token invocation must not exit")
	}
	if exp.Messages[0] != "2" {
		t.Errorf("messages = %v, want [2]", exp.Messages)
	}
	if exp.SQL != "SELECT 1" {
		t.Errorf("SQL = %q", exp.SQL)
	}
}

func TestNestedConditionals(t *testing.T) {
	body := []string{
		"if {argc} > 0",
		"  if {1} = on",
		"    echo enabled",
		"  else",
		"    echo disabled",
		"  endif",
		"endif",
	}
	exp := expand(t, body, "m on")
	if exp.Messages[0] != "enabled" {
		t.Errorf("messages = %v", exp.Messages)
	}
	exp = expand(t, body, "m off")
	if exp.Messages[0] != "disabled" {
		t.Errorf("messages = %v", exp.Messages)
	}
	exp = expand(t, body, "m")
	if len(exp.Messages) != 0 {
		t.Errorf("suppressed branch produced %v", exp.Messages)
	}
}

func TestSuppressedLinesAreNotSubstituted(t *testing.T) {
	// A reference that would render null inside a false branch must never
	// be evaluated or emitted.
	body := []string{
		"if {argc} = 99",
		"SELECT {1}",
		"endif",
		"SELECT 2",
	}
	exp := expand(t, body, "m")
	if exp.SQL != "SELECT 2" {
		t.Errorf("SQL = %q", exp.SQL)
	}
}

func TestEchoLineBreakMarker(t *testing.T) {
	exp := expand(t, []string{"echo first<br>second"}, "m")
	if len(exp.Messages) != 2 || exp.Messages[0] != "first" || exp.Messages[1] != "second" {
		t.Errorf("messages = %v", exp.Messages)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	body := []string{
		"# this macro lists a table",
		"SELECT * FROM {1}",
	}
	exp := expand(t, body, "m t")
	if exp.SQL != "SELECT * FROM t" {
		t.Errorf("SQL = %q", exp.SQL)
	}
}

func TestExpansionIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	body := []string{"SELECT {1}, {*2} FROM T WHERE c = {argc}"}
	if err := reg.Define("m", body); err != nil {
		t.Fatal(err)
	}
	m, _ := reg.Lookup("m")

	line := "m a b c"
	first, err := reg.Expand(m, NewScope(line, Tokenize(line)))
	if err != nil {
		t.Fatal(err)
	}
	second, err := reg.Expand(m, NewScope(line, Tokenize(line)))
	if err != nil {
		t.Fatal(err)
	}
	if first.SQL != second.SQL {
		t.Errorf("expansion not idempotent: %q vs %q", first.SQL, second.SQL)
	}
}

func TestDefineStructuralErrors(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		body []string
	}{
		{"missing endif", []string{"if {argc} = 0", "echo hi"}},
		{"stray endif", []string{"endif"}},
		{"stray else", []string{"else"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Define("bad", tt.body); !errors.Is(err, ErrMalformedMacroBody) {
				t.Errorf("Define = %v, want ErrMalformedMacroBody", err)
			}
		})
	}

	// Depth 9 is fine, depth 10 is not.
	var deep []string
	for i := 0; i < 10; i++ {
		deep = append(deep, "if 1 = 1")
	}
	for i := 0; i < 10; i++ {
		deep = append(deep, "endif")
	}
	if err := reg.Define("deep", deep); !errors.Is(err, ErrMalformedMacroBody) {
		t.Errorf("depth 10 Define = %v, want ErrMalformedMacroBody", err)
	}
	if err := reg.Define("ok", deep[1:len(deep)-1]); err != nil {
		t.Errorf("depth 9 Define = %v, want nil", err)
	}
}

func TestDefineOverwrites(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define("M", []string{"SELECT 1"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Define("m", []string{"SELECT 2"}); err != nil {
		t.Fatal(err)
	}
	m, ok := reg.Lookup("M")
	if !ok || m.Body[0] != "SELECT 2" {
		t.Errorf("lookup after redefine = %+v", m)
	}
}

func TestRecursiveMacroInvocationRejected(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define("inner", []string{"SELECT 1"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Define("outer", []string{"inner {1}"}); err != nil {
		t.Fatal(err)
	}
	m, _ := reg.Lookup("outer")
	_, err := reg.Expand(m, NewScope("outer x", Tokenize("outer x")))
	if !errors.Is(err, ErrRecursiveMacroInvocation) {
		t.Errorf("Expand = %v, want ErrRecursiveMacroInvocation", err)
	}
}

func TestConditionOperators(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"1 = 1", true},
		{"1 == 1", true},
		{"1 <> 2", true},
		{"1 != 1", false},
		{"2 < 10", true}, // numeric, not lexicographic
		{"10 <= 10", true},
		{"abc = abc", true},
		{"abc < abd", true},
		{"'x' = x", true},         // quotes stripped from operands
		{"nonsense", false},       // malformed is false
		{"'a<=b' = 'a<=b'", true}, // operators inside quotes are not split points
		{"'a<=b' = c", false},
	}
	for _, tt := range tests {
		if got := evalCondition(tt.expr); got != tt.want {
			t.Errorf("evalCondition(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}
