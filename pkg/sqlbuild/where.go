// Package sqlbuild constructs parameterized Postgres statements from
// caller-supplied filters and field sets. Only column names and operators
// from developer-authored maps are written into statement text; values are
// always bound through $n placeholders.
package sqlbuild

import (
	"fmt"
	"strings"
)

// Condition maps a filter parameter to the column and operator it controls.
type Condition struct {
	Column string
	Op     string
}

// ConditionMap is keyed by the filter parameter name.
type ConditionMap map[string]Condition

// Param is one named filter value.
type Param struct {
	Name  string
	Value any
}

// Params is an ordered list of filter values. Order determines placeholder
// numbering in the generated predicate.
type Params []Param

// Add appends a param and returns the extended list.
func (p Params) Add(name string, value any) Params {
	return append(p, Param{Name: name, Value: value})
}

// Where builds a WHERE clause and its positional arguments. Params whose
// name is not in conds are skipped. It returns an empty clause and no args
// when nothing matches, so callers can append the result unconditionally.
func Where(params Params, conds ConditionMap) (string, []any) {
	clauses := make([]string, 0, len(params))
	args := make([]any, 0, len(params))

	for _, p := range params {
		c, ok := conds[p.Name]
		if !ok {
			continue
		}

		args = append(args, bindValue(c.Op, p.Value))
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", c.Column, c.Op, len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// bindValue wraps pattern-match values for substring semantics.
func bindValue(op string, v any) any {
	if isPatternOp(op) {
		return fmt.Sprintf("%%%v%%", v)
	}
	return v
}

func isPatternOp(op string) bool {
	switch strings.ToUpper(strings.TrimSpace(op)) {
	case "LIKE", "ILIKE":
		return true
	}
	return false
}
