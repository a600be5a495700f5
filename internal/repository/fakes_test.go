package repository

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type call struct {
	sql  string
	args []any
}

// fakeDB answers queries from canned values keyed by a SQL fragment.
type fakeDB struct {
	mu    sync.Mutex
	calls []call

	rowValues map[string][]any // QueryRow result by SQL fragment
	rowErr    map[string]error
	rows      [][]any // Query result
	queryErr  error
	execErr   error
	tx        *fakeTx
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		rowValues: map[string][]any{},
		rowErr:    map[string]error{},
	}
}

func (db *fakeDB) record(sql string, args []any) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls = append(db.calls, call{sql: sql, args: args})
}

func (db *fakeDB) callsMatching(fragment string) []call {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []call
	for _, c := range db.calls {
		if strings.Contains(c.sql, fragment) {
			out = append(out, c)
		}
	}
	return out
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.record(sql, args)
	return pgconn.CommandTag{}, db.execErr
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.record(sql, args)
	if db.queryErr != nil {
		return nil, db.queryErr
	}
	return &fakeRows{values: db.rows, idx: -1}, nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db.record(sql, args)
	for fragment, err := range db.rowErr {
		if strings.Contains(sql, fragment) {
			return fakeRow{err: err}
		}
	}
	for fragment, values := range db.rowValues {
		if strings.Contains(sql, fragment) {
			return fakeRow{values: values}
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.tx == nil {
		db.tx = &fakeTx{db: db}
	}
	return db.tx, nil
}

// fakeTx forwards statements to its fakeDB. Methods the repository never
// calls are left to the embedded nil interface.
type fakeTx struct {
	pgx.Tx
	db        *fakeDB
	commits   int
	rollbacks int
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.db.Exec(ctx, sql, args...)
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return tx.db.QueryRow(ctx, sql, args...)
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.commits++
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.rollbacks++
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	pgx.Rows
	values [][]any
	idx    int
	closed bool
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.values)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.values[r.idx])
}

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Close() { r.closed = true }

// assign copies values into the scan destinations. A nil value leaves a
// pointer destination nil, like a SQL NULL.
func assign(dest []any, values []any) error {
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		if target.Kind() == reflect.Ptr && v.Kind() != reflect.Ptr {
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(v)
			v = p
		}
		target.Set(v)
	}
	return nil
}
