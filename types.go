package waffles

import (
	"fmt"
	"reflect"
)

// SQLType is an abstract column type. SQL returns the DDL type fragment and
// Accepts reports whether a native Go value may be stored in the column.
type SQLType interface {
	SQL() string
	Accepts(v any) bool
	String() string
}

// Integer maps to the PostgreSQL integer family, including the serial
// pseudo-types when auto-incrementing.
type Integer struct {
	big           bool
	small         bool
	autoIncrement bool
}

// NewInteger returns an Integer type. big and small are mutually exclusive.
func NewInteger(big, small, autoIncrement bool) (Integer, error) {
	if big && small {
		return Integer{}, fmt.Errorf("%w: integer column type cannot be both big and small", ErrSchemaDefinition)
	}
	return Integer{big: big, small: small, autoIncrement: autoIncrement}, nil
}

// MustInteger is like NewInteger but panics on an invalid combination.
func MustInteger(big, small, autoIncrement bool) Integer {
	t, err := NewInteger(big, small, autoIncrement)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Integer) Big() bool           { return t.big }
func (t Integer) Small() bool         { return t.small }
func (t Integer) AutoIncrement() bool { return t.autoIncrement }

func (t Integer) SQL() string {
	if t.autoIncrement {
		switch {
		case t.big:
			return "BIGSERIAL"
		case t.small:
			return "SMALLSERIAL"
		}
		return "SERIAL"
	}

	switch {
	case t.big:
		return "BIGINT"
	case t.small:
		return "SMALLINT"
	}
	return "INTEGER"
}

func (t Integer) Accepts(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func (t Integer) String() string { return "Integer" }

// String maps to TEXT, VARCHAR(n) or CHAR(n).
type String struct {
	length int
	fixed  bool
}

// NewString returns a String type. A length of 0 means unbounded; fixed
// requires a length.
func NewString(length int, fixed bool) (String, error) {
	if length < 0 {
		return String{}, fmt.Errorf("%w: string length %d is negative", ErrSchemaDefinition, length)
	}
	if fixed && length == 0 {
		return String{}, fmt.Errorf("%w: cannot have fixed string with no length", ErrSchemaDefinition)
	}
	return String{length: length, fixed: fixed}, nil
}

// MustString is like NewString but panics on an invalid combination.
func MustString(length int, fixed bool) String {
	t, err := NewString(length, fixed)
	if err != nil {
		panic(err)
	}
	return t
}

func (t String) Length() int { return t.length }
func (t String) Fixed() bool { return t.fixed }

func (t String) SQL() string {
	if t.length == 0 {
		return "TEXT"
	}
	if t.fixed {
		return fmt.Sprintf("CHAR(%d)", t.length)
	}
	return fmt.Sprintf("VARCHAR(%d)", t.length)
}

func (t String) Accepts(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.String
}

func (t String) String() string { return "String" }

// JSON maps to JSONB and accepts sequences and mappings.
type JSON struct{}

func (JSON) SQL() string { return "JSONB" }

func (JSON) Accepts(v any) bool {
	if v == nil {
		return false
	}
	rt := reflect.TypeOf(v)
	switch rt.Kind() {
	case reflect.Map, reflect.Array:
		return true
	case reflect.Slice:
		// []byte is raw bytes, not a sequence
		return rt.Elem().Kind() != reflect.Uint8
	}
	return false
}

func (JSON) String() string { return "JSON" }
