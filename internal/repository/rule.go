package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"collector-engine/internal/domain"
)

type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// ListActiveAutomatic returns every rule the engine may process, highest
// priority first. Inactive and manual rules never leave the database.
func (r *RuleRepository) ListActiveAutomatic(ctx context.Context) ([]domain.Rule, error) {
	query := `
		SELECT
			id,
			company_id,
			name,
			is_active,
			priority,
			execution_mode,
			start_date_field,
			required_approval_statuses,
			last_execution_at,
			next_execution_at,
			created_at,
			updated_at
		FROM collection_rules
		WHERE is_active = TRUE
		  AND execution_mode = $1
		ORDER BY priority DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, string(domain.ExecutionModeAutomatic))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Rule

	for rows.Next() {
		var (
			rule     domain.Rule
			statuses sql.NullString
		)

		if err := rows.Scan(
			&rule.ID,
			&rule.CompanyID,
			&rule.Name,
			&rule.IsActive,
			&rule.Priority,
			&rule.ExecutionMode,
			&rule.StartDateField,
			&statuses,
			&rule.LastExecutionAt,
			&rule.NextExecutionAt,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if statuses.Valid && statuses.String != "" {
			for _, s := range strings.Split(statuses.String, ",") {
				if s = strings.TrimSpace(s); s != "" {
					rule.RequiredApprovalStatuses = append(rule.RequiredApprovalStatuses, s)
				}
			}
		}

		result = append(result, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// ListSteps returns a rule's enabled steps ordered for same-day fan-out.
func (r *RuleRepository) ListSteps(ctx context.Context, ruleID string) ([]domain.Step, error) {
	query := `
		SELECT
			id,
			rule_id,
			step_order,
			days_after_start,
			action_type,
			message_subject,
			message_template,
			is_enabled
		FROM collection_rule_steps
		WHERE rule_id = $1
		  AND is_enabled = TRUE
		ORDER BY days_after_start, step_order
	`

	rows, err := r.db.QueryContext(ctx, query, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Step

	for rows.Next() {
		var s domain.Step

		if err := rows.Scan(
			&s.ID,
			&s.RuleID,
			&s.StepOrder,
			&s.DaysAfterStart,
			&s.ActionType,
			&s.MessageSubject,
			&s.MessageTemplate,
			&s.IsEnabled,
		); err != nil {
			return nil, err
		}

		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// StampExecution records that a full pass over the rule finished.
func (r *RuleRepository) StampExecution(ctx context.Context, ruleID string, last, next time.Time) error {
	query := `
		UPDATE collection_rules
		SET last_execution_at = $2,
		    next_execution_at = $3,
		    updated_at = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, ruleID, last, next)
	return err
}
