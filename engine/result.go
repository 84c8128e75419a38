// result.go normalizes a command's outcome into the two documented
// return shapes.
package engine

// Value reduces the outcome to its accessible shape.
//
// Plain mode: the result set's rows; if there is no result set, the
// ordered output-parameter values; nil when neither exists.
//
// Raw mode: a composite slice whose first element is the array-of-rows
// with a header row of column names (nil when there was no result set),
// followed by each output parameter in declared order. Callers destructure
// it to obtain the result set and parameters separately.
func (o *Outcome) Value(flags Flags) any {
	if flags.Raw {
		composite := []any{RowsWithHeader(o.Result)}
		composite = append(composite, o.Params...)
		return composite
	}

	if o.Result != nil {
		return o.Result.Rows
	}
	if len(o.Params) > 0 {
		return o.Params
	}
	return nil
}

// RowsWithHeader prefixes the result rows with the column-name row, the
// raw-mode representation of a result set. Nil in, nil out.
func RowsWithHeader(res *ResultSet) [][]any {
	if res == nil {
		return nil
	}
	header := make([]any, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	out := make([][]any, 0, len(res.Rows)+1)
	out = append(out, header)
	out = append(out, res.Rows...)
	return out
}
