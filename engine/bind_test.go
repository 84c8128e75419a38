package engine

import (
	"reflect"
	"strings"
	"testing"
)

func TestExpandPlaceholders(t *testing.T) {
	tests := []struct {
		in        string
		wantSQL   string
		wantCount int
	}{
		{"INSERT INTO X VALUES (?*3)", "INSERT INTO X VALUES (?,?,?)", 3},
		{"INSERT INTO X VALUES (?*3,?*7)", "INSERT INTO X VALUES (?,?,?,?,?,?,?,?,?,?)", 10},
		{"SELECT * FROM T WHERE a = ? AND b = ?", "SELECT * FROM T WHERE a = ? AND b = ?", 2},
		{"INSERT INTO X VALUES (?, ?*2)", "INSERT INTO X VALUES (?, ?,?)", 3},
		{"SELECT '?*3' FROM T WHERE a = ?", "SELECT '?*3' FROM T WHERE a = ?", 1},
		{"SELECT 1", "SELECT 1", 0},
	}
	for _, tt := range tests {
		gotSQL, gotCount := expandPlaceholders(tt.in)
		if gotSQL != tt.wantSQL || gotCount != tt.wantCount {
			t.Errorf("expandPlaceholders(%q) = (%q, %d), want (%q, %d)",
				tt.in, gotSQL, gotCount, tt.wantSQL, tt.wantCount)
		}
	}
}

func TestInlineVariablesTyped(t *testing.T) {
	vars := map[string]any{
		"empno": "000010",
		"bonus": 1500,
		"blob":  "ab",
	}

	tests := []struct {
		in   string
		want string
	}{
		{"SELECT * FROM emp WHERE empno = :empno@char", "SELECT * FROM emp WHERE empno = '000010'"},
		{"UPDATE emp SET bonus = :bonus@int", "UPDATE emp SET bonus = 1500"},
		{"UPDATE emp SET bonus = :bonus@decimal", "UPDATE emp SET bonus = 1500"},
		{"INSERT INTO t VALUES (:blob@bin)", "INSERT INTO t VALUES (X'6162')"},
		// Casts and quoted text are left alone.
		{"SELECT ':empno' FROM t", "SELECT ':empno' FROM t"},
		{"SELECT a::text FROM t", "SELECT a::text FROM t"},
		// Unknown names pass through for the driver to report.
		{"SELECT :missing FROM t", "SELECT :missing FROM t"},
	}
	for _, tt := range tests {
		got, args := inlineVariables(tt.in, vars)
		if got != tt.want {
			t.Errorf("inlineVariables(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if len(args) != 0 {
			t.Errorf("inlineVariables(%q) bound %v, want none", tt.in, args)
		}
	}
}

func TestInlineVariablesCharQuoting(t *testing.T) {
	vars := map[string]any{"name": "O'Hara"}
	got, _ := inlineVariables("SELECT * FROM emp WHERE lastname = :name@char", vars)
	if !strings.Contains(got, "'O''Hara'") {
		t.Errorf("embedded quote not doubled: %q", got)
	}
}

func TestInlineVariablesBareBindsOutOfBand(t *testing.T) {
	vars := map[string]any{"empno": "000010", "dept": 20}
	got, args := inlineVariables("SELECT * FROM emp WHERE empno = :empno AND dept = :dept", vars)
	if got != "SELECT * FROM emp WHERE empno = ? AND dept = ?" {
		t.Errorf("sql = %q", got)
	}
	want := []any{"000010", 20}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestResolveUsing(t *testing.T) {
	vars := map[string]any{
		"empno": "000010",
		"rows":  []any{int64(1), "two", 3.5},
		"nums":  []int{7, 8, 9},
	}

	args, err := resolveUsing("1, 'text', null, :empno, rows, nums", vars)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{int64(1), "text", nil, "000010", int64(1), "two", 3.5, 7, 8, 9}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %#v,\nwant %#v", args, want)
	}
}

func TestResolveUsingTypedValuesUnmangled(t *testing.T) {
	vars := map[string]any{
		"name":  "O'Hara",
		"blob":  "ab",
		"raw":   []byte{0xde, 0xad},
		"bonus": 1500,
	}

	args, err := resolveUsing(":name@char, :blob@bin, :raw@bin, :bonus@int", vars)
	if err != nil {
		t.Fatal(err)
	}
	// Bound values carry no inline-SQL escaping: no quote doubling for
	// char, no X'..' wrapper for bin.
	want := []any{"O'Hara", []byte("ab"), []byte{0xde, 0xad}, "1500"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %#v,\nwant %#v", args, want)
	}
}

func TestResolveUsingUnknownBareNameIsConstant(t *testing.T) {
	args, err := resolveUsing("pending", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 1 || args[0] != "pending" {
		t.Errorf("args = %v", args)
	}
}

func TestResolveUsingUndefinedColonVariable(t *testing.T) {
	if _, err := resolveUsing(":nope", map[string]any{}); err == nil {
		t.Error("expected an error for an unset :variable")
	}
}

func TestResolveUsingQuotedCommas(t *testing.T) {
	args, err := resolveUsing("'a,b', 2", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	want := []any{"a,b", int64(2)}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestSplitStatements(t *testing.T) {
	block := "CREATE TABLE t (a int); INSERT INTO t VALUES ('x;y');\n\nSELECT * FROM t;"
	got := splitStatements(block)
	want := []string{
		"CREATE TABLE t (a int)",
		"INSERT INTO t VALUES ('x;y')",
		"SELECT * FROM t",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitStatements = %q, want %q", got, want)
	}
}
