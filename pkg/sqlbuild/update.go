package sqlbuild

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ReservedPrefix marks control fields (such as _token) that ride along in a
// request payload and must never be written to a table.
const ReservedPrefix = "_"

// ErrNoFields is returned when a partial update has nothing to set.
var ErrNoFields = errors.New("no fields to update")

// Field is one column assignment.
type Field struct {
	Name  string
	Value any
}

// Fields is an ordered set of column assignments.
type Fields []Field

// FieldsFromMap converts a decoded JSON object into Fields sorted by key.
func FieldsFromMap(m map[string]any) Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Fields, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Name: k, Value: m[k]})
	}
	return out
}

// IsReserved reports whether name carries the reserved prefix.
func IsReserved(name string) bool {
	return strings.HasPrefix(name, ReservedPrefix)
}

// Only returns the fields whose name is in allowed, preserving order.
func (f Fields) Only(allowed ...string) Fields {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}

	out := make(Fields, 0, len(f))
	for _, fld := range f {
		if _, ok := set[fld.Name]; ok {
			out = append(out, fld)
		}
	}
	return out
}

// Get returns the value of the named field.
func (f Fields) Get(name string) (any, bool) {
	for _, fld := range f {
		if fld.Name == name {
			return fld.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of the named field in place. It is a no-op when
// the field is absent.
func (f Fields) Set(name string, v any) {
	for i := range f {
		if f[i].Name == name {
			f[i].Value = v
		}
	}
}

// PartialUpdate builds
//
//	UPDATE <table> SET a=$1, b=$2 WHERE <keyColumn>=$3 RETURNING *
//
// from the non-reserved fields, with keyValue bound last. It returns
// ErrNoFields when no eligible field remains.
func PartialUpdate(table string, fields Fields, keyColumn string, keyValue any) (string, []any, error) {
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)

	for _, f := range fields {
		if IsReserved(f.Name) {
			continue
		}
		args = append(args, f.Value)
		sets = append(sets, fmt.Sprintf("%s=$%d", f.Name, len(args)))
	}

	if len(sets) == 0 {
		return "", nil, ErrNoFields
	}

	args = append(args, keyValue)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s=$%d RETURNING *",
		table, strings.Join(sets, ", "), keyColumn, len(args))

	return query, args, nil
}
