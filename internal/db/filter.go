package db

import (
	"fmt"
	"strings"
)

// whereBuilder accumulates WHERE clauses with numbered placeholders so a
// single bound value can be referenced from several comparisons.
type whereBuilder struct {
	clauses []string
	args    []any
}

// bind registers a value and returns its placeholder, e.g. "?3".
func (w *whereBuilder) bind(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("?%d", len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

// in adds a membership clause over the given column. An empty value set
// produces a clause that matches nothing rather than everything.
func (w *whereBuilder) in(column string, values []string) {
	if len(values) == 0 {
		w.add("1 = 0")
		return
	}
	placeholders := make([]string, 0, len(values))
	for _, v := range values {
		placeholders = append(placeholders, w.bind(v))
	}
	w.add(column + " IN (" + strings.Join(placeholders, ", ") + ")")
}

func (w *whereBuilder) where() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
