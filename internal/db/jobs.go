package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Job represents one queued/running/finished invocation of the two-phase
// planner for a depot's day (adapted from the teacher's refresh-job
// lifecycle: pending -> running -> completed|failed|cancelled).
type Job struct {
	ID                string
	DepotID           string
	PlanningDay       time.Time
	UserID            sql.NullString
	Status            string
	OrdersProcessed   int
	TrucksOpened      int
	StartedAt         sql.NullTime
	CompletedAt       sql.NullTime
	DurationSeconds   sql.NullInt32
	ErrorMessage      sql.NullString
	RetryCount        int
	MaxRetries        int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CreateJob creates a new plan-run job in the pending state.
func (q *Queries) CreateJob(ctx context.Context, jobID, depotID string, planningDay time.Time, userID string) error {
	query := `
		INSERT INTO plan_jobs (
			id, depot_id, planning_day, user_id, status, max_retries
		) VALUES ($1, $2, $3, $4, 'pending', 3)
	`
	_, err := q.db.ExecContext(ctx, query, jobID, depotID, planningDay, userID)
	return err
}

// StartJob marks a job as started.
func (q *Queries) StartJob(ctx context.Context, jobID string) error {
	query := `
		UPDATE plan_jobs
		SET status = 'running', started_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	_, err := q.db.ExecContext(ctx, query, jobID)
	return err
}

// UpdateJobCounts updates the orders-processed/trucks-opened tallies for a running job.
func (q *Queries) UpdateJobCounts(ctx context.Context, jobID string, ordersProcessed, trucksOpened int) error {
	query := `
		UPDATE plan_jobs
		SET orders_processed = $1, trucks_opened = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := q.db.ExecContext(ctx, query, ordersProcessed, trucksOpened, jobID)
	return err
}

// CompleteJob marks a job as completed.
func (q *Queries) CompleteJob(ctx context.Context, jobID string) error {
	query := `
		UPDATE plan_jobs
		SET status = 'completed',
		    completed_at = NOW(),
		    duration_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::INTEGER,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := q.db.ExecContext(ctx, query, jobID)
	return err
}

// FailJob marks a job as failed with an error message.
func (q *Queries) FailJob(ctx context.Context, jobID, errorMsg string) error {
	query := `
		UPDATE plan_jobs
		SET status = 'failed',
		    error_message = $1,
		    completed_at = NOW(),
		    duration_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::INTEGER,
		    updated_at = NOW()
		WHERE id = $2
	`
	_, err := q.db.ExecContext(ctx, query, errorMsg, jobID)
	return err
}

// CancelJob marks a job as cancelled.
func (q *Queries) CancelJob(ctx context.Context, jobID, message string) error {
	query := `
		UPDATE plan_jobs
		SET status = 'cancelled',
		    error_message = $1,
		    completed_at = NOW(),
		    duration_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::INTEGER,
		    updated_at = NOW()
		WHERE id = $2 AND status IN ('pending', 'running')
	`
	result, err := q.db.ExecContext(ctx, query, message, jobID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job not found or not in cancellable state")
	}
	return nil
}

// ListJobsByDepot lists recent plan-run jobs for a depot, most recent first.
func (q *Queries) ListJobsByDepot(ctx context.Context, depotID string, limit int) ([]*Job, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM plan_jobs
		WHERE depot_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, depotID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job := &Job{}
		if err := rows.Scan(
			&job.ID, &job.DepotID, &job.PlanningDay, &job.UserID, &job.Status,
			&job.OrdersProcessed, &job.TrucksOpened,
			&job.StartedAt, &job.CompletedAt, &job.DurationSeconds,
			&job.ErrorMessage, &job.RetryCount, &job.MaxRetries,
			&job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// IncrementRetryCount increments the retry count for a job.
func (q *Queries) IncrementRetryCount(ctx context.Context, jobID string) error {
	query := `UPDATE plan_jobs SET retry_count = retry_count + 1, updated_at = NOW() WHERE id = $1`
	_, err := q.db.ExecContext(ctx, query, jobID)
	return err
}

const jobColumns = `
	id, depot_id, planning_day, user_id, status,
	orders_processed, trucks_opened,
	started_at, completed_at, duration_seconds,
	error_message, retry_count, max_retries,
	created_at, updated_at
`

func scanJob(row *sql.Row) (*Job, error) {
	job := &Job{}
	err := row.Scan(
		&job.ID, &job.DepotID, &job.PlanningDay, &job.UserID, &job.Status,
		&job.OrdersProcessed, &job.TrucksOpened,
		&job.StartedAt, &job.CompletedAt, &job.DurationSeconds,
		&job.ErrorMessage, &job.RetryCount, &job.MaxRetries,
		&job.CreatedAt, &job.UpdatedAt,
	)
	return job, err
}

// GetJob gets a plan-run job by id.
func (q *Queries) GetJob(ctx context.Context, jobID string) (*Job, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM plan_jobs WHERE id = $1`, jobID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// GetLatestJob gets the most recent plan-run job for a depot.
func (q *Queries) GetLatestJob(ctx context.Context, depotID string) (*Job, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM plan_jobs WHERE depot_id = $1 ORDER BY created_at DESC LIMIT 1`, depotID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest job: %w", err)
	}
	return job, nil
}

// GetActiveJob gets the currently running or pending plan-run job for a
// depot. Returns nil if no active job exists.
func (q *Queries) GetActiveJob(ctx context.Context, depotID string) (*Job, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM plan_jobs
		WHERE depot_id = $1 AND status IN ('pending', 'running')
		ORDER BY created_at DESC
		LIMIT 1
	`, depotID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active job: %w", err)
	}
	return job, nil
}
