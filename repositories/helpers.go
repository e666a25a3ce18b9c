package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func executor(db *sql.DB, exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return db
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// execBatch runs query once per row, through a prepared statement when the
// executor supports it (a transaction always does).
func execBatch(ctx context.Context, exec SQLExecutor, query string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if p, ok := exec.(preparer); ok {
		stmt, err := p.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare batch statement: %w", err)
		}
		defer stmt.Close()
		for i, args := range rows {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("batch row %d: %w", i, err)
			}
		}
		return nil
	}
	for i, args := range rows {
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("batch row %d: %w", i, err)
		}
	}
	return nil
}

func scanIDs(rows *sql.Rows) ([]int, error) {
	defer rows.Close()
	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// constraintError maps a named constraint violation to a domain error.
func constraintError(err error, byConstraint map[string]error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if mapped, found := byConstraint[pqErr.Constraint]; found {
			return fmt.Errorf("%w: %s", mapped, pqErr.Detail)
		}
	}
	return err
}
