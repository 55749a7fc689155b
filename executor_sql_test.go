package waffles

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockExecutor(t *testing.T) (*SQLExecutor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLExecutor(db), mock
}

func TestSQLExecutorExecuteScriptInTransaction(t *testing.T) {
	exec, mock := newMockExecutor(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users (email TEXT NOT NULL)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS users_email_idx ON users (email)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	cols := []*Column{MustColumn("email", String{}, WithIndex())}
	if err := exec.Execute(context.Background(), RenderCreateTable("users", cols, true)); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLExecutorExecuteScriptRollsBack(t *testing.T) {
	exec, mock := newMockExecutor(t)
	indexErr := errors.New(`relation "users_email_idx" already exists`)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users (email TEXT NOT NULL)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS users_email_idx ON users (email)").
		WillReturnError(indexErr)
	mock.ExpectRollback()

	db := New(exec)
	_, err := db.CreateTable(context.Background(), "users", []*Column{MustColumn("email", String{}, WithIndex())})
	var ee *ExecutorError
	if !errors.As(err, &ee) || !errors.Is(err, indexErr) {
		t.Fatalf("CreateTable() error = %v, want *ExecutorError wrapping the index failure", err)
	}
	if ee.SQL != "CREATE INDEX IF NOT EXISTS users_email_idx ON users (email)" {
		t.Errorf("ExecutorError.SQL = %q", ee.SQL)
	}
	if _, ok := db.Table("users"); ok {
		t.Error("users registered after a failed CREATE INDEX")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLExecutorExecuteEmpty(t *testing.T) {
	exec, mock := newMockExecutor(t)
	if err := exec.Execute(context.Background(), " ;\n"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLExecutorExecuteError(t *testing.T) {
	exec, mock := newMockExecutor(t)
	driverErr := errors.New("relation already exists")
	mock.ExpectExec("DROP TABLE users").WillReturnError(driverErr)

	err := exec.Execute(context.Background(), "DROP TABLE users")
	var ee *ExecutorError
	if !errors.As(err, &ee) {
		t.Fatalf("Execute() error = %v, want *ExecutorError", err)
	}
	if ee.SQL != "DROP TABLE users" || !errors.Is(err, driverErr) {
		t.Errorf("ExecutorError = %+v", ee)
	}
}

func TestSQLExecutorFetchRow(t *testing.T) {
	exec, mock := newMockExecutor(t)
	query := "INSERT INTO users (name, age) VALUES ($1, $2) RETURNING *;"
	mock.ExpectQuery(query).
		WithArgs("bob", 42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).AddRow(int64(1), []byte("bob"), int64(42)))

	rec, err := exec.FetchRow(context.Background(), query, "bob", 42)
	if err != nil {
		t.Fatalf("FetchRow() error: %v", err)
	}
	want := Record{Columns: []string{"id", "name", "age"}, Values: []any{int64(1), "bob", int64(42)}}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("FetchRow() = %#v, want %#v", rec, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLExecutorFetchRowNoRows(t *testing.T) {
	exec, mock := newMockExecutor(t)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"x"}))

	_, err := exec.FetchRow(context.Background(), "SELECT 1")
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("FetchRow() error = %v, want ErrNoRows", err)
	}
}

func TestDatabaseOverSQLMock(t *testing.T) {
	ctx := context.Background()
	exec, mock := newMockExecutor(t)
	db := New(exec)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users (id SERIAL NOT NULL, name VARCHAR(50) DEFAULT 'bob' NOT NULL, PRIMARY KEY (id))").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO users (name) VALUES ($1) RETURNING *;").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice"))
	mock.ExpectExec("DROP TABLE IF EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))

	tbl, err := db.CreateTable(ctx, "users", []*Column{
		MustColumn("id", MustInteger(false, false, true), WithPrimaryKey()),
		MustColumn("name", MustString(50, false), WithDefault("bob")),
	})
	if err != nil {
		t.Fatalf("CreateTable() error: %v", err)
	}
	row, err := tbl.Add(ctx, Set("name", "alice"))
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if got := row.String(); got != "Row(id=1 name=alice)" {
		t.Errorf("row = %s", got)
	}
	if err := db.DropTable(ctx, "users"); err != nil {
		t.Fatalf("DropTable() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// TestDatabaseOverSQLite runs the full create/insert/drop cycle against an
// in-process SQLite database, which accepts the PostgreSQL type names and
// $n placeholders used here.
func TestDatabaseOverSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "waffles.db")

	exec, err := OpenSQL(ctx, "sqlite:"+path)
	if err != nil {
		t.Fatalf("OpenSQL() error: %v", err)
	}
	defer exec.Close()

	db := New(exec)
	tbl, err := db.CreateTable(ctx, "users", []*Column{
		MustColumn("id", Integer{}, WithPrimaryKey()),
		MustColumn("name", MustString(50, false), WithDefault("bob")),
		MustColumn("email", String{}, WithUnique(), WithIndex()),
		MustColumn("tags", JSON{}, WithNullable()),
	})
	if err != nil {
		t.Fatalf("CreateTable() error: %v", err)
	}

	var idx string
	if err := exec.DB().QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'users' AND name = 'users_email_idx'",
	).Scan(&idx); err != nil {
		t.Fatalf("index users_email_idx not created: %v", err)
	}

	row, err := tbl.Add(ctx, Set("id", 1).Set("email", "a@example.com").Set("tags", []string{"x"}))
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if got := row.Columns(); !reflect.DeepEqual(got, []string{"id", "name", "email", "tags"}) {
		t.Errorf("row columns = %v", got)
	}
	if name, _ := row.Text("name"); name != "bob" {
		t.Errorf("row name = %q, want server default bob", name)
	}
	if tags, _ := row.Text("tags"); tags != `["x"]` {
		t.Errorf("row tags = %q", tags)
	}
	if id, ok := row.Int64("id"); !ok || id != 1 {
		t.Errorf("row id = %d, %t", id, ok)
	}

	_, err = tbl.Add(ctx, Set("id", 2).Set("email", "a@example.com"))
	var ee *ExecutorError
	if !errors.As(err, &ee) {
		t.Fatalf("duplicate email error = %v, want *ExecutorError", err)
	}

	if err := db.DropTable(ctx, "users"); err != nil {
		t.Fatalf("DropTable() error: %v", err)
	}
	if _, err := tbl.Add(ctx, Set("id", 3)); !errors.Is(err, ErrTableDropped) {
		t.Errorf("Add() after drop error = %v", err)
	}
}

func TestSQLExecutorScriptRollsBackOverSQLite(t *testing.T) {
	ctx := context.Background()
	exec, err := OpenSQL(ctx, "sqlite:"+filepath.Join(t.TempDir(), "atomic.db"))
	if err != nil {
		t.Fatalf("OpenSQL() error: %v", err)
	}
	defer exec.Close()

	err = exec.Execute(ctx, "CREATE TABLE pets (name TEXT NOT NULL);\nCREATE INDEX pets_name_idx ON missing (name);")
	var ee *ExecutorError
	if !errors.As(err, &ee) {
		t.Fatalf("Execute() error = %v, want *ExecutorError", err)
	}

	var n int
	if err := exec.DB().QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'pets'",
	).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Error("pets was created even though the script failed")
	}
}
