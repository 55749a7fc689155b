package waffles

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Column describes one table column. Columns are immutable once built; a
// table keeps its own copy, which also carries the derived index name.
type Column struct {
	name       string
	typ        SQLType
	index      bool
	primaryKey bool
	nullable   bool
	unique     bool
	def        any

	indexName string
}

// ColumnOption configures optional column constraints.
type ColumnOption func(*Column)

// WithIndex creates a secondary index on the column.
func WithIndex() ColumnOption { return func(c *Column) { c.index = true } }

// WithPrimaryKey makes the column part of the table's primary key.
func WithPrimaryKey() ColumnOption { return func(c *Column) { c.primaryKey = true } }

// WithNullable drops the NOT NULL constraint.
func WithNullable() ColumnOption { return func(c *Column) { c.nullable = true } }

// WithUnique adds a UNIQUE constraint. It is not rendered when the column
// also carries a default.
func WithUnique() ColumnOption { return func(c *Column) { c.unique = true } }

// WithDefault sets the column default. Zero values (nil, false, 0, "", empty
// collections) count as no default.
func WithDefault(v any) ColumnOption { return func(c *Column) { c.def = v } }

// NewColumn builds a column. columnType may be a configured type such as
// MustString(50, false) or a zero-value descriptor such as Integer{}, which
// behaves as the type with default options.
func NewColumn(name string, columnType SQLType, opts ...ColumnOption) (*Column, error) {
	if columnType == nil {
		return nil, fmt.Errorf("%w: column %q has no type", ErrInvalidColumnType, name)
	}
	if rv := reflect.ValueOf(columnType); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, fmt.Errorf("%w: column %q has a nil %T", ErrInvalidColumnType, name, columnType)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: column name is empty", ErrSchemaDefinition)
	}

	c := &Column{name: name, typ: columnType}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MustColumn is like NewColumn but panics on error. Intended for schema
// declarations in package-level variables and tests.
func MustColumn(name string, columnType SQLType, opts ...ColumnOption) *Column {
	c, err := NewColumn(name, columnType, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Column) Name() string     { return c.name }
func (c *Column) Type() SQLType    { return c.typ }
func (c *Column) Index() bool      { return c.index }
func (c *Column) PrimaryKey() bool { return c.primaryKey }
func (c *Column) Nullable() bool   { return c.nullable }
func (c *Column) Unique() bool     { return c.unique }
func (c *Column) Default() any     { return c.def }

// IndexName returns the name of the column's index, or "" when the column is
// not indexed or is a declaration not taken from a Table.
func (c *Column) IndexName() string { return c.indexName }

func (c *Column) String() string {
	return fmt.Sprintf("Column(%s %s)", c.name, c.typ)
}

// attach records the back-reference to the owning table.
func (c *Column) attach(table string) {
	if c.index {
		c.indexName = indexName(table, c.name)
	}
}

// indexName derives <table>_<column>_idx. Index names cannot carry a schema,
// so a qualified table contributes only its last part, and quotes are dropped.
func indexName(table, column string) string {
	if i := strings.LastIndex(table, "."); i >= 0 {
		table = table[i+1:]
	}
	unquote := strings.NewReplacer(`"`, "")
	return unquote.Replace(table) + "_" + unquote.Replace(column) + "_idx"
}

// SQL renders the column definition used inside CREATE TABLE.
func (c *Column) SQL() string {
	parts := []string{c.name, c.typ.SQL()}

	if hasDefault(c.def) {
		parts = append(parts, "DEFAULT", c.defaultLiteral())
	} else if c.unique {
		parts = append(parts, "UNIQUE")
	}

	if !c.nullable {
		parts = append(parts, "NOT NULL")
	}

	return strings.Join(parts, " ")
}

func (c *Column) defaultLiteral() string {
	if s, ok := c.def.(string); ok {
		if _, isString := c.typ.(String); isString {
			return quoteLiteral(s)
		}
	}
	if b, ok := c.def.(bool); ok {
		return strings.ToUpper(fmt.Sprint(b))
	}
	// documents for JSON columns become a quoted JSON text the server casts
	if _, isJSON := c.typ.(JSON); isJSON && c.typ.Accepts(c.def) {
		if b, err := json.Marshal(c.def); err == nil {
			return "(" + quoteLiteral(stripJSONNulls(string(b))) + ")"
		}
	}
	return fmt.Sprintf("(%v)", c.def)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// hasDefault reports whether v is a usable default, treating zero values as unset.
func hasDefault(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return !rv.IsZero()
}
