package repository

import (
	"context"
	"database/sql"
	"time"

	"collector-engine/internal/domain"
)

type ExecutionRepository struct {
	db *sql.DB
}

func NewExecutionRepository(db *sql.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// Exists reports whether any execution past processing already covers the
// idempotency tuple; a hit skips the debt's whole step set for the day. The
// unique index ux_executions_rule_debt_date_offset_step (tuple plus step_id,
// so same-day fan-out steps coexist) backstops concurrent inserts that slip
// past this check.
func (r *ExecutionRepository) Exists(ctx context.Context, ruleID, debtID string, executionDate time.Time, daysOffset int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM collection_executions
			WHERE rule_id = $1
			  AND debt_id = $2
			  AND execution_date = $3
			  AND days_offset = $4
			  AND status <> $5
		)
	`

	var found bool
	err := r.db.QueryRowContext(ctx, query,
		ruleID,
		debtID,
		executionDate.Format("2006-01-02"),
		daysOffset,
		domain.ExecutionProcessing,
	).Scan(&found)
	if err != nil {
		return false, err
	}

	return found, nil
}

func (r *ExecutionRepository) Insert(ctx context.Context, e *domain.Execution) error {
	query := `
		INSERT INTO collection_executions (
			id, run_id,
			rule_id, company_id, customer_id, debt_id,
			step_id, step_order, action_type,
			days_offset, execution_date,
			status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	now := time.Now()
	e.CreatedAt = &now

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.RunID,
		e.RuleID,
		e.CompanyID,
		e.CustomerID,
		e.DebtID,
		e.StepID,
		e.StepOrder,
		string(e.ActionType),
		e.DaysOffset,
		e.ExecutionDate.Format("2006-01-02"),
		e.Status,
		now,
	)
	return err
}

func (r *ExecutionRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE collection_executions
		SET status = $2, executed_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.ExecutionSent, at)
	return err
}

func (r *ExecutionRepository) MarkFailed(ctx context.Context, id string, at time.Time, reason string) error {
	query := `
		UPDATE collection_executions
		SET status = $2, executed_at = $3, error = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.ExecutionFailed, at, reason)
	return err
}

// ListByRun returns a run's executions in dispatch order, for the run report.
func (r *ExecutionRepository) ListByRun(ctx context.Context, runID string) ([]domain.Execution, error) {
	query := `
		SELECT
			id, run_id,
			rule_id, company_id, customer_id, debt_id,
			step_id, step_order, action_type,
			days_offset, execution_date,
			status, executed_at, error, created_at
		FROM collection_executions
		WHERE run_id = $1
		ORDER BY created_at, step_order
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Execution

	for rows.Next() {
		var e domain.Execution

		if err := rows.Scan(
			&e.ID,
			&e.RunID,
			&e.RuleID,
			&e.CompanyID,
			&e.CustomerID,
			&e.DebtID,
			&e.StepID,
			&e.StepOrder,
			&e.ActionType,
			&e.DaysOffset,
			&e.ExecutionDate,
			&e.Status,
			&e.ExecutedAt,
			&e.Error,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}

		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
