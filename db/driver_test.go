package db

import "testing"

func TestTranslatePlaceholders(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT * FROM t WHERE a = ?", "SELECT * FROM t WHERE a = $1"},
		{"INSERT INTO t VALUES (?,?,?)", "INSERT INTO t VALUES ($1,$2,$3)"},
		{"SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{`SELECT "odd?name" FROM t`, `SELECT "odd?name" FROM t`},
		{"SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := translatePlaceholders(tt.in); got != tt.want {
			t.Errorf("translatePlaceholders(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
