// driver.go declares the engine's view of the database driver.
//
// The driver is an external collaborator: the engine classifies, expands
// and binds, then hands finished SQL plus ordered arguments to whatever
// implements Driver. The db package provides the pgx-backed implementation;
// tests use an in-memory fake.
package engine

import "context"

// ResultSet is the driver's answer to a statement that produced rows.
type ResultSet struct {
	Columns []string
	Rows    [][]any
	Status  string // e.g. "SELECT 5", "INSERT 0 1"
}

// Driver is the black-box database session the engine drives.
//
// Placeholders in statement text are driver-neutral `?`; implementations
// translate to their native marker. A single call is outstanding at a time.
type Driver interface {
	// Execute runs a statement and returns its result set (nil when the
	// statement produces no rows).
	Execute(ctx context.Context, sql string, args []any) (*ResultSet, error)

	// Prepare compiles a parameterized statement and returns an opaque
	// handle for later execution.
	Prepare(ctx context.Context, sql string) (string, error)

	// ExecutePrepared runs a previously prepared statement by handle.
	ExecutePrepared(ctx context.Context, handle string, args []any) (*ResultSet, error)

	// Call invokes a stored procedure and returns at most one result set
	// plus the final values of its input/output and output parameters in
	// declaration order.
	Call(ctx context.Context, name string, args []any) (*ResultSet, []any, error)

	// Commit ends the current unit of work. When hold is true, open
	// statements and cursors survive the commit.
	Commit(ctx context.Context, hold bool) error

	// Rollback undoes the current unit of work.
	Rollback(ctx context.Context) error

	// Autocommit switches implicit per-statement commits on or off.
	Autocommit(on bool)
}
