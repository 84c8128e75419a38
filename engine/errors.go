// errors.go defines the error kinds the engine reports to callers.
//
// All of these are static input-correctness failures: they are detected
// before (or instead of) a driver call and are never retried. Driver
// failures are passed through verbatim, not wrapped in engine types.
package engine

import "errors"

var (
	// ErrMalformedMacroBody is returned by Define when a macro body has an
	// `if` without a matching `endif`, an `else`/`endif` with no open `if`,
	// or conditional nesting deeper than 9 levels.
	ErrMalformedMacroBody = errors.New("malformed macro body")

	// ErrUnknownStatementHandle is returned by EXECUTE against a handle
	// that was never prepared, or that was invalidated by a COMMIT
	// (without HOLD) or a ROLLBACK.
	ErrUnknownStatementHandle = errors.New("unknown statement handle")

	// ErrParameterCountMismatch is returned when the flattened USING
	// argument count does not equal the prepared statement's parameter
	// count.
	ErrParameterCountMismatch = errors.New("parameter count mismatch")

	// ErrRecursiveMacroInvocation is returned when a macro body generates
	// a line whose leading token names a registered macro. Macros cannot
	// invoke macros.
	ErrRecursiveMacroInvocation = errors.New("recursive macro invocation")
)
