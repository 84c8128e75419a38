// driver.go adapts a pgx pool to the engine's Driver interface.
//
// Placeholder translation: the engine emits driver-neutral `?` markers;
// PostgreSQL wants $1..$n, so we rewrite outside quoted text.
//
// Prepared statements are emulated: Prepare stores the translated text
// under a generated handle and ExecutePrepared replays it. pgx's own
// statement cache does the server-side preparation on first execution,
// so an extra server round-trip here would buy nothing.
//
// Transactions: with autocommit on, each statement runs directly on the
// pool and PostgreSQL commits it. With autocommit off, the first statement
// lazily opens a transaction that stays open until an explicit COMMIT or
// ROLLBACK.
package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	pgx "github.com/jackc/pgx/v5"

	"github.com/nbsql/nbsql/engine"
)

// Driver is the pgx-backed engine.Driver for one interpreter session.
// Not safe for concurrent use; sessions are single-threaded by design.
type Driver struct {
	db       *DB
	tx       pgx.Tx
	auto     bool
	prepared map[string]string // handle -> translated statement text
	seq      int
}

// NewDriver wraps an open connection in a session driver.
func NewDriver(db *DB) *Driver {
	return &Driver{db: db, auto: true, prepared: make(map[string]string)}
}

// querier is the pool or, when a transaction is open, that transaction.
func (d *Driver) querier(ctx context.Context) (interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, error) {
	if d.tx != nil {
		return d.tx, nil
	}
	if d.auto {
		return d.db.Pool, nil
	}
	tx, err := d.db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	d.tx = tx
	return tx, nil
}

// Execute runs one statement and collects its rows.
func (d *Driver) Execute(ctx context.Context, sql string, args []any) (*engine.ResultSet, error) {
	q, err := d.querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, translatePlaceholders(sql), args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Prepare records the statement under a new handle.
func (d *Driver) Prepare(_ context.Context, sql string) (string, error) {
	d.seq++
	handle := "S" + strconv.Itoa(d.seq)
	d.prepared[handle] = translatePlaceholders(sql)
	return handle, nil
}

// ExecutePrepared replays a recorded statement with fresh arguments.
func (d *Driver) ExecutePrepared(ctx context.Context, handle string, args []any) (*engine.ResultSet, error) {
	sql, ok := d.prepared[handle]
	if !ok {
		return nil, fmt.Errorf("statement %s is not prepared on this connection", handle)
	}

	q, err := d.querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Call invokes a stored procedure. PostgreSQL returns the final values of
// INOUT/OUT parameters as a single result row; a procedure that instead
// streams multiple rows is surfaced as a result set.
func (d *Driver) Call(ctx context.Context, name string, args []any) (*engine.ResultSet, []any, error) {
	var b strings.Builder
	b.WriteString("CALL ")
	b.WriteString(name)
	b.WriteByte('(')
	for i := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(i + 1))
	}
	b.WriteByte(')')

	q, err := d.querier(ctx)
	if err != nil {
		return nil, nil, err
	}
	rows, err := q.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, nil, err
	}
	res, err := collect(rows)
	if err != nil {
		return nil, nil, err
	}

	if res == nil {
		return nil, nil, nil
	}
	if len(res.Rows) == 1 {
		return nil, res.Rows[0], nil
	}
	return res, nil, nil
}

// Commit ends the open transaction, if any. With autocommit on there is
// nothing pending, so an explicit COMMIT succeeds as a no-op. The hold
// flag has no driver-level effect here: statements are emulated, so they
// survive commits regardless; the engine decides which handles stay valid.
func (d *Driver) Commit(ctx context.Context, _ bool) error {
	if d.tx == nil {
		return nil
	}
	err := d.tx.Commit(ctx)
	d.tx = nil
	return err
}

// Rollback undoes the open transaction, if any.
func (d *Driver) Rollback(ctx context.Context) error {
	if d.tx == nil {
		return nil
	}
	err := d.tx.Rollback(ctx)
	d.tx = nil
	return err
}

// Autocommit switches the implicit-commit mode. An open transaction keeps
// running until an explicit COMMIT or ROLLBACK; the new mode applies to
// statements after that.
func (d *Driver) Autocommit(on bool) { d.auto = on }

// collect drains pgx rows into the engine's result shape. Statements that
// produce no columns (DDL, DML) return a nil result set with the command
// tag carried via the error-free path.
func collect(rows pgx.Rows) (*engine.ResultSet, error) {
	defer rows.Close()

	res := &engine.ResultSet{}
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(res.Columns) == 0 {
		return nil, nil
	}
	res.Status = fmt.Sprintf("(%d row%s)", len(res.Rows), plural(len(res.Rows)))
	return res, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// translatePlaceholders rewrites driver-neutral `?` markers to $1..$n,
// leaving quoted text alone.
func translatePlaceholders(sql string) string {
	var b strings.Builder
	n := 0
	i := 0
	for i < len(sql) {
		c := sql[i]
		if c == '\'' || c == '"' {
			j := i + 1
			for j < len(sql) && sql[j] != c {
				j++
			}
			if j < len(sql) {
				j++
			}
			b.WriteString(sql[i:j])
			i = j
			continue
		}
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}
