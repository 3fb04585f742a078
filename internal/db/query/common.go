package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Executor is satisfied by both *sql.DB and *sql.Tx.
type Executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func AddSavepoint(ctx context.Context, tx *sql.Tx) (string, error) {
	savepointName := "x" + strings.ReplaceAll(uuid.New().String(), "-", "")
	_, err := tx.ExecContext(ctx, "SAVEPOINT "+savepointName+";")
	if err != nil {
		return "", fmt.Errorf("failed to create savepoint: %w", err)
	}

	return savepointName, nil
}

func RollbackToSavepoint(ctx context.Context, name string, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
	return err
}

func ReleaseSavepoint(ctx context.Context, name string, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	return err
}

func RollbackWithError(ctx context.Context, tx *sql.Tx, savepointName string, err error) error {
	if err != nil {
		if savepointErr := RollbackToSavepoint(ctx, savepointName, tx); savepointErr != nil {
			return fmt.Errorf("failed to rollback tx with err %w while handling error: %w", savepointErr, err)
		}
		return err
	}
	return nil
}

type txKey struct{}

func ContextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func GetTx(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok && tx != nil
}

// Conn returns the transaction carried by ctx, or dbConn when there is
// none.
func Conn(ctx context.Context, dbConn *sql.DB) Executor {
	if tx, ok := GetTx(ctx); ok {
		return tx
	}
	return dbConn
}

// Transactor runs fn inside a transaction. Repositories pick the
// transaction up from the context fn receives.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type sqlTransactor struct {
	Db *sql.DB
}

func NewTransactor(dbConn *sql.DB) Transactor {
	return sqlTransactor{Db: dbConn}
}

// WithinTx commits when fn succeeds. When ctx already carries a
// transaction, fn runs under a savepoint of it instead.
func (t sqlTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := GetTx(ctx); ok {
		savepoint, err := AddSavepoint(ctx, tx)
		if err != nil {
			return ClassifyError("create savepoint", err)
		}
		if err := RollbackWithError(ctx, tx, savepoint, fn(ctx)); err != nil {
			return err
		}
		return ReleaseSavepoint(ctx, savepoint, tx)
	}

	tx, err := t.Db.BeginTx(ctx, nil)
	if err != nil {
		return ClassifyError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(ContextWithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return ClassifyError("commit transaction", err)
	}
	return nil
}

// NoopTransactor runs fn directly. It backs the in-memory repositories.
type NoopTransactor struct{}

func (NoopTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
