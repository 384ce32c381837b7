package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"title_ingester/internal/domain"
)

type ctxKey string

const txKey ctxKey = "tx"

// Executor is the subset of sqlx shared by *sqlx.DB, *sqlx.Tx and the
// transaction guard used inside WithTransaction.
type Executor interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// sharedTx serializes round trips on one transaction. Several goroutines may
// write through the same transaction, but a connection can only serve one
// statement at a time, so each call holds the lock until its rows are drained.
type sharedTx struct {
	mu sync.Mutex
	tx *sqlx.Tx
}

func (t *sharedTx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.GetContext(ctx, dest, query, args...)
}

func (t *sharedTx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.SelectContext(ctx, dest, query, args...)
}

func (t *sharedTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.ExecContext(ctx, query, args...)
}

type TransactionManager struct {
	db *sqlx.DB
}

func NewTransactionManager(db *sqlx.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// WithTransaction runs fn inside one transaction and commits only if fn
// succeeds. Errors caused by concurrent writers are tagged with
// domain.ErrWriteConflict.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey, &sharedTx{tx: tx})

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return tagConflict(err)
	}

	if err := tx.Commit(); err != nil {
		return tagConflict(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func getTxFromContext(ctx context.Context) *sharedTx {
	tx, _ := ctx.Value(txKey).(*sharedTx)
	return tx
}

// GetExecutor returns the transaction carried by ctx, or db outside one.
func GetExecutor(ctx context.Context, db *sqlx.DB) Executor {
	if tx := getTxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// SQLSTATE codes raised when two transactions write the same rows.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func tagConflict(err error) error {
	if errors.Is(err, domain.ErrDuplicateTitle) {
		return err
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %w", domain.ErrWriteConflict, err)
	}
	return err
}
