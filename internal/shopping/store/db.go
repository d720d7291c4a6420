package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"listsnap/pkg/platform/sentinel"
	"listsnap/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// CommitHook is called after every successful commit with the tables the
// transaction wrote. Hooks run while the writer lock is still held.
type CommitHook func(ctx context.Context, tables ...string)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the relational data store. It implements Stores and TxRunner.
type DB struct {
	db        *sql.DB
	dialect   Dialect
	writeMu   sync.Mutex
	hooks     []CommitHook
	txTimeout time.Duration
	logger    *slog.Logger
}

type Option func(*DB)

func WithLogger(logger *slog.Logger) Option {
	return func(d *DB) {
		d.logger = logger
	}
}

// WithCommitHook registers a hook run after each commit.
func WithCommitHook(hook CommitHook) Option {
	return func(d *DB) {
		d.hooks = append(d.hooks, hook)
	}
}

// WithTxTimeout bounds how long a transaction may run once begun.
func WithTxTimeout(timeout time.Duration) Option {
	return func(d *DB) {
		if timeout > 0 {
			d.txTimeout = timeout
		}
	}
}

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect, opts ...Option) *DB {
	d := &DB{
		db:        db,
		dialect:   dialect,
		txTimeout: defaultTxTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddCommitHook registers a hook after construction.
func (d *DB) AddCommitHook(hook CommitHook) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	d.hooks = append(d.hooks, hook)
}

// Migrate creates the schema if it does not exist.
func (d *DB) Migrate(ctx context.Context) error {
	schema, err := d.dialect.Schema()
	if err != nil {
		return fmt.Errorf("read %s schema: %w", d.dialect.Name, err)
	}
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply %s schema: %w", d.dialect.Name, err)
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Photos() PhotoStore { return &photoStore{d: d} }
func (d *DB) Lists() ListStore   { return &listStore{d: d} }
func (d *DB) Items() ItemStore   { return &itemStore{d: d} }

// RunInTx executes fn atomically. A ctx that already carries a transaction
// opened by this DB joins it instead of starting a second top-level one.
// Once begun, the transaction ignores cancellation of ctx and runs to commit
// or rollback, bounded only by the transaction timeout.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	if scope, ok := tx.From(ctx); ok && scope.OwnedBy(d) {
		return fn(ctx, d)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	detached := context.WithoutCancel(ctx)
	txCtx, cancel := context.WithTimeout(detached, d.txTimeout)
	defer cancel()

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	sqlTx, err := d.db.BeginTx(txCtx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", d.classify(err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	scope := tx.NewScope(sqlTx, d)
	if err := fn(tx.WithScope(txCtx, scope), d); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", d.classify(err))
	}
	committed = true

	if touched := scope.Touched(); len(touched) > 0 {
		for _, hook := range d.hooks {
			hook(detached, touched...)
		}
	}
	return nil
}

// q returns the ambient transaction for ctx, or the pool.
func (d *DB) q(ctx context.Context) querier {
	if scope, ok := tx.From(ctx); ok && scope.OwnedBy(d) {
		return scope.Tx
	}
	return d.db
}

// write runs fn inside the ambient transaction, or a new one, and marks
// tables as touched once fn succeeds.
func (d *DB) write(ctx context.Context, tables []string, fn func(ctx context.Context, q querier) error) error {
	return d.RunInTx(ctx, func(ctx context.Context, _ Stores) error {
		scope, _ := tx.From(ctx)
		if err := fn(ctx, scope.Tx); err != nil {
			return err
		}
		scope.Touch(tables...)
		return nil
	})
}

func (d *DB) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	res, err := q.ExecContext(ctx, d.dialect.Rebind(query), args...)
	return res, d.classify(err)
}

func (d *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := d.q(ctx).QueryContext(ctx, d.dialect.Rebind(query), args...)
	return rows, d.classify(err)
}

func (d *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.q(ctx).QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}

// classify wraps constraint failures with sentinel.ErrConflict.
func (d *DB) classify(err error) error {
	if err == nil {
		return nil
	}
	if d.dialect.IsConstraintViolation(err) {
		return fmt.Errorf("%w: %w", sentinel.ErrConflict, err)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}

// expectAffected converts a zero-row write into sentinel.ErrNotFound.
func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
