package waffles

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaDefinition is returned when a column type is built with
	// contradictory options.
	ErrSchemaDefinition = errors.New("invalid schema definition")

	// ErrInvalidColumnType is returned when a column has no usable SQL type.
	ErrInvalidColumnType = errors.New("invalid column type")

	// ErrUnknownColumn is returned by Table.Add for values naming a column
	// the table does not declare.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrTypeMismatch is returned by Table.Add when a value does not fit the
	// declared column type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrTableDoesNotExist is returned by Database.DropTable for names that
	// are not registered.
	ErrTableDoesNotExist = errors.New("table does not exist")

	// ErrTableDropped is returned when a Table is used after it was dropped.
	ErrTableDropped = errors.New("table has been dropped")

	// ErrNoRows is returned by executors when a statement expected to return
	// one record returned none.
	ErrNoRows = errors.New("no rows in result set")
)

// ExecutorError wraps a failure reported by the driver, network or server
// while running a statement.
type ExecutorError struct {
	Op  string // "execute", "fetch row", "begin", "commit" or "acquire connection"
	SQL string
	Err error
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("%s: %v\nSQL: %s", e.Op, e.Err, e.SQL)
}

func (e *ExecutorError) Unwrap() error { return e.Err }
