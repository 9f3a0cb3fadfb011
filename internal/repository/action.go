package repository

import (
	"context"
	"database/sql"
	"time"

	"collector-engine/internal/domain"
)

type ActionRepository struct {
	db *sql.DB
}

func NewActionRepository(db *sql.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) Insert(ctx context.Context, a *domain.CollectionAction) error {
	query := `
		INSERT INTO collection_actions (
			id, execution_id,
			customer_id, company_id, debt_id,
			action_type, status, message,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	a.CreatedAt = &now

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.ExecutionID,
		a.CustomerID,
		a.CompanyID,
		a.DebtID,
		string(a.ActionType),
		a.Status,
		a.Message,
		now,
	)
	return err
}
