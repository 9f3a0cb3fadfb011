package repository

import (
	"context"
	"database/sql"
	"time"

	"collector-engine/internal/domain"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) CreateTask(ctx context.Context, t *domain.CollectionTask) error {
	query := `
		INSERT INTO collection_tasks (
			id, customer_id, company_id,
			task_type, status, priority, description,
			debt_id, rule_id, step_id, days_offset,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	now := time.Now()
	t.CreatedAt = &now

	if t.Status == "" {
		t.Status = domain.TaskStatusPending
	}

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.CustomerID,
		t.CompanyID,
		string(t.TaskType),
		t.Status,
		t.Priority,
		t.Description,
		t.DebtID,
		t.RuleID,
		t.StepID,
		t.DaysOffset,
		now,
	)
	return err
}
