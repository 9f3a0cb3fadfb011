package repository

import (
	"context"
	"database/sql"

	"collector-engine/internal/domain"
)

type DebtRepository struct {
	db *sql.DB
}

func NewDebtRepository(db *sql.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

// ListByCompany loads a tenant's debts joined with debtor contact info and the
// bureau scores. Eligibility gating happens in the service layer; the query
// orders by due date then id so runs are reproducible.
func (r *DebtRepository) ListByCompany(ctx context.Context, companyID string) ([]domain.Debt, error) {
	query := `
		SELECT
			d.id,
			d.company_id,
			d.amount,
			d.due_date,
			d.first_overdue_at,
			d.analysis_date,
			d.custom_start_date,
			d.approval_status,

			c.id    AS customer_id,
			c.name  AS customer_name,
			c.email AS customer_email,
			c.phone AS customer_phone,

			d.recovery_score,
			d.recovery_class
		FROM debts d
		JOIN customers c ON c.id = d.customer_id
		WHERE d.company_id = $1
		  AND d.deleted_at IS NULL
		ORDER BY d.due_date, d.id
	`

	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Debt

	for rows.Next() {
		var d domain.Debt

		if err := rows.Scan(
			&d.ID,
			&d.CompanyID,
			&d.Amount,
			&d.DueDate,
			&d.FirstOverdueAt,
			&d.AnalysisDate,
			&d.CustomStartDate,
			&d.ApprovalStatus,

			&d.CustomerID,
			&d.CustomerName,
			&d.CustomerEmail,
			&d.CustomerPhone,

			&d.RecoveryScore,
			&d.RecoveryClass,
		); err != nil {
			return nil, err
		}

		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
