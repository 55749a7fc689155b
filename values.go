package waffles

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Value is one named value passed to Table.Add.
type Value struct {
	Column string
	Value  any
}

// Values is an ordered set of column values. Insertion order is the order
// of the rendered INSERT column list and of the statement arguments.
type Values []Value

// Set starts a Values list with a single column value.
func Set(column string, value any) Values {
	return Values{{Column: column, Value: value}}
}

// Set appends a column value, replacing an earlier value for the same
// column in place.
func (vs Values) Set(column string, value any) Values {
	for i := range vs {
		if vs[i].Column == column {
			vs[i].Value = value
			return vs
		}
	}
	return append(vs, Value{Column: column, Value: value})
}

// FromMap converts a map into Values ordered by column name.
func FromMap(m map[string]any) Values {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	vs := make(Values, 0, len(m))
	for _, name := range names {
		vs = append(vs, Value{Column: name, Value: m[name]})
	}
	return vs
}

// Columns returns the column names in order.
func (vs Values) Columns() []string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Column
	}
	return names
}

// driverValue converts a validated value to what the executor sends to the
// server. JSON values are encoded to JSON text with NUL characters removed,
// since PostgreSQL rejects \u0000 in jsonb.
func driverValue(val any, col *Column) (any, error) {
	if val == nil {
		return nil, nil
	}
	if _, ok := col.typ.(JSON); !ok {
		return val, nil
	}

	b, err := json.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("encode %s value for column %s: %w", col.typ, col.name, err)
	}
	return stripJSONNulls(string(b)), nil
}

// stripJSONNulls drops \u0000 escapes from encoded JSON, leaving escaped
// backslashes followed by "u0000" intact.
func stripJSONNulls(s string) string {
	if !strings.Contains(s, `\u0000`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			if strings.HasPrefix(s[i:], `\u0000`) {
				i += len(`\u0000`) - 1
				continue
			}
			b.WriteByte(s[i])
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
