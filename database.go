// Package waffles is a small object-relational mapping layer for
// PostgreSQL. Tables are declared as typed columns, their DDL is generated
// and executed through an Executor, and rows are inserted with their
// server-side result mapped back to a Row.
package waffles

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Database is the registry of tables created through it. A table is
// registered only after its CREATE TABLE succeeded and unregistered only
// after its DROP TABLE succeeded.
type Database struct {
	exec Executor
	log  logrus.FieldLogger

	mu     sync.RWMutex
	tables map[string]*Table
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger used for statements and registry changes.
func WithLogger(l logrus.FieldLogger) Option {
	return func(db *Database) { db.log = l }
}

// New returns an empty registry that runs statements through exec.
func New(exec Executor, opts ...Option) *Database {
	db := &Database{
		exec:   exec,
		tables: make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		db.log = l
	}
	return db
}

type tableOptions struct {
	existsOk bool
}

// TableOption configures CreateTable and DropTable.
type TableOption func(*tableOptions)

// WithExistsOK controls the IF NOT EXISTS / IF EXISTS clause. It is on by
// default.
func WithExistsOK(ok bool) TableOption {
	return func(o *tableOptions) { o.existsOk = ok }
}

func applyTableOptions(opts []TableOption) tableOptions {
	o := tableOptions{existsOk: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Executor returns the executor statements run through.
func (db *Database) Executor() Executor { return db.exec }

// CreateTable creates the table and its indexes and registers it under
// name, replacing any earlier registration. The registry is untouched when
// the statement fails.
func (db *Database) CreateTable(ctx context.Context, name string, columns []*Column, opts ...TableOption) (*Table, error) {
	o := applyTableOptions(opts)

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: table name is empty", ErrSchemaDefinition)
	}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("%w: table %s column %d is nil", ErrInvalidColumnType, name, i)
		}
	}

	for _, w := range SchemaWarnings(name, columns) {
		db.log.WithField("table", name).Warn(w)
	}

	sql := RenderCreateTable(name, columns, o.existsOk)
	db.log.WithFields(logrus.Fields{"table": name, "sql": sql}).Debug("create table")
	if err := db.exec.Execute(ctx, sql); err != nil {
		return nil, err
	}

	t := newTable(name, columns, db.exec, db.log)

	db.mu.Lock()
	db.tables[name] = t
	db.mu.Unlock()

	db.log.WithFields(logrus.Fields{"table": name, "columns": len(t.columns)}).Info("table registered")
	return t, nil
}

// DropTable drops a registered table. It fails with ErrTableDoesNotExist
// for unregistered names whatever WithExistsOK says; the option only
// affects the IF EXISTS clause sent to the server.
func (db *Database) DropTable(ctx context.Context, name string, opts ...TableOption) error {
	o := applyTableOptions(opts)

	db.mu.RLock()
	t, ok := db.tables[name]
	db.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableDoesNotExist, name)
	}

	sql := RenderDropTable(name, o.existsOk)
	db.log.WithFields(logrus.Fields{"table": name, "sql": sql}).Debug("drop table")
	if err := db.exec.Execute(ctx, sql); err != nil {
		return err
	}

	db.mu.Lock()
	if db.tables[name] == t {
		delete(db.tables, name)
	}
	db.mu.Unlock()
	t.dropped.Store(true)

	db.log.WithField("table", name).Info("table unregistered")
	return nil
}

// Table returns the registered table called name.
func (db *Database) Table(name string) (*Table, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tables[name]
	return t, ok
}

// Tables returns the registered tables sorted by name.
func (db *Database) Tables() []*Table {
	db.mu.RLock()
	out := make([]*Table, 0, len(db.tables))
	for _, t := range db.tables {
		out = append(out, t)
	}
	db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (db *Database) String() string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fmt.Sprintf("Database(%d tables)", len(db.tables))
}
