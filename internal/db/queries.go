package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Queries provides access to all database operations.
type Queries struct {
	db *sql.DB
}

// New creates a new Queries instance.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// DB returns the underlying database connection.
func (q *Queries) DB() *sql.DB {
	return q.db
}

// TruncatePlanTables clears a depot's plan-run history and settings. Used by
// test fixtures and the dev reset path; production never calls this outside
// a migration rollback.
func (q *Queries) TruncatePlanTables(ctx context.Context, depotID string) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_jobs WHERE depot_id = $1", depotID); err != nil {
		return fmt.Errorf("failed to truncate plan_jobs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM depot_settings WHERE depot_id = $1", depotID); err != nil {
		return fmt.Errorf("failed to truncate depot_settings: %w", err)
	}

	return tx.Commit()
}
