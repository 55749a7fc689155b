package waffles

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Table is a registered table. It is created by Database.CreateTable and
// becomes unusable once dropped.
type Table struct {
	name    string
	columns []*Column
	byName  map[string]*Column

	exec    Executor
	log     logrus.FieldLogger
	dropped atomic.Bool
}

// newTable attaches copies of columns to the table, so one declaration can
// back several tables. A repeated column name keeps the position of its
// first occurrence and the definition of its last.
func newTable(name string, columns []*Column, exec Executor, log logrus.FieldLogger) *Table {
	t := &Table{
		name:   name,
		byName: make(map[string]*Column, len(columns)),
		exec:   exec,
		log:    log,
	}
	for _, decl := range columns {
		col := *decl
		col.attach(name)
		if _, dup := t.byName[col.name]; !dup {
			t.columns = append(t.columns, &col)
		} else {
			for i := range t.columns {
				if t.columns[i].name == col.name {
					t.columns[i] = &col
				}
			}
		}
		t.byName[col.name] = &col
	}
	return t
}

func (t *Table) Name() string { return t.name }

// Columns returns the columns in declared order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.byName[name]
	return c, ok
}

func (t *Table) String() string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.String()
	}
	return fmt.Sprintf("Table(%s [%s])", t.name, strings.Join(names, ", "))
}

// Add validates values against the column types, inserts them and returns
// the inserted row as stored by the server, including defaults and serials.
// Nothing is sent to the executor when validation fails.
func (t *Table) Add(ctx context.Context, values Values) (*Row, error) {
	if t.dropped.Load() {
		return nil, fmt.Errorf("%w: %s", ErrTableDropped, t.name)
	}

	params := make([]any, len(values))
	for i, v := range values {
		col, ok := t.byName[v.Column]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no column %q", ErrUnknownColumn, t.name, v.Column)
		}
		if err := checkValue(col, v.Value); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.name, col.name, err)
		}
		p, err := driverValue(v.Value, col)
		if err != nil {
			return nil, err
		}
		params[i] = p
	}

	sql := RenderInsert(t.name, values.Columns())
	t.log.WithFields(logrus.Fields{"table": t.name, "sql": sql}).Debug("insert row")

	rec, err := t.exec.FetchRow(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	return newRow(rec), nil
}

// AddMap is Add for a map of values, inserted in column name order.
func (t *Table) AddMap(ctx context.Context, values map[string]any) (*Row, error) {
	return t.Add(ctx, FromMap(values))
}

func checkValue(col *Column, v any) error {
	if v == nil {
		if col.nullable {
			return nil
		}
		return fmt.Errorf("%w: NULL for non-nullable %s column", ErrTypeMismatch, col.typ)
	}
	if !col.typ.Accepts(v) {
		return fmt.Errorf("%w: %s column does not accept %T", ErrTypeMismatch, col.typ, v)
	}
	return nil
}
