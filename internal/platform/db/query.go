package db

import (
	"fmt"
	"strings"
)

// Filter accumulates AND-ed conditions with positional arguments for list
// queries built at runtime.
type Filter struct {
	clauses []string
	Args    []interface{}
}

// Eq adds "column = $n".
func (f *Filter) Eq(column string, value interface{}) {
	f.Args = append(f.Args, value)
	f.clauses = append(f.clauses, fmt.Sprintf("%s = $%d", column, len(f.Args)))
}

// Where renders the accumulated conditions, or "" when there are none.
func (f *Filter) Where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// Page appends LIMIT and OFFSET placeholders and returns the clause together
// with the full argument list.
func (f *Filter) Page(limit, offset int) (string, []interface{}) {
	n := len(f.Args)
	args := append(append([]interface{}{}, f.Args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}
