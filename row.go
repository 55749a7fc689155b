package waffles

import (
	"fmt"
	"reflect"
	"strings"
)

// Row is the record returned by an INSERT ... RETURNING *. It keeps the
// server's column order and is not modified after construction.
type Row struct {
	columns []string
	values  map[string]any
}

func newRow(rec Record) *Row {
	r := &Row{
		columns: make([]string, 0, len(rec.Columns)),
		values:  make(map[string]any, len(rec.Columns)),
	}
	for i, name := range rec.Columns {
		if _, seen := r.values[name]; !seen {
			r.columns = append(r.columns, name)
		}
		var v any
		if i < len(rec.Values) {
			v = rec.Values[i]
		}
		r.values[name] = v
	}
	return r
}

// Columns returns the column names in result order.
func (r *Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Len returns the number of columns.
func (r *Row) Len() int { return len(r.columns) }

// Get returns the value of a column and whether the row has it.
func (r *Row) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Map returns a copy of the row as a map.
func (r *Row) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Int64 returns an integer column value. ok is false when the column is
// missing, NULL or not an integer.
func (r *Row) Int64(name string) (int64, bool) {
	v, ok := r.values[name]
	if !ok || v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

// Text returns a string column value. ok is false when the column is
// missing, NULL or not a string.
func (r *Row) Text(name string) (string, bool) {
	s, ok := r.values[name].(string)
	return s, ok
}

func (r *Row) String() string {
	attrs := make([]string, len(r.columns))
	for i, name := range r.columns {
		attrs[i] = fmt.Sprintf("%s=%v", name, r.values[name])
	}
	return "Row(" + strings.Join(attrs, " ") + ")"
}
