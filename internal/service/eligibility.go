package service

import (
	"context"
	"time"

	"collector-engine/internal/domain"
)

// MinRecoveryScore is the hard safety floor below which a debt never receives
// automated outreach, regardless of rule configuration. The boundary is
// inclusive: 294 passes, 293 does not.
const MinRecoveryScore = 294

var defaultApprovalStatuses = []string{"ACEITA", "ACEITA_ESPECIAL"}

// eligibleDebts loads the rule's tenant debts and applies the approval-status,
// contact-availability and recovery-score gates, resolving each survivor's
// reference date. Rejected debts are skipped silently; only aggregate counts
// get logged by the caller.
func (e *Engine) eligibleDebts(ctx context.Context, rule domain.Rule) ([]domain.EligibleDebt, error) {
	debts, err := e.debts.ListByCompany(ctx, rule.CompanyID)
	if err != nil {
		return nil, err
	}

	allowed := rule.RequiredApprovalStatuses
	if len(allowed) == 0 {
		allowed = defaultApprovalStatuses
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = true
	}

	var result []domain.EligibleDebt

	for _, d := range debts {
		if !allowedSet[d.ApprovalStatus] {
			continue
		}

		if !d.HasEmail() && !d.HasPhone() {
			continue
		}

		if d.RecoveryScore == nil || *d.RecoveryScore < MinRecoveryScore {
			continue
		}

		start := resolveStartDate(rule.StartDateField, d)
		if start == nil {
			continue
		}

		result = append(result, domain.EligibleDebt{
			Debt:      d,
			StartDate: *start,
		})
	}

	return result, nil
}

// resolveStartDate picks the debt timestamp anchoring day-offset calculations,
// falling back to the first-overdue date when the configured field is empty.
func resolveStartDate(field domain.StartDateField, d domain.Debt) *time.Time {
	var start *time.Time

	switch field {
	case domain.StartDateDueDate:
		start = d.DueDate
	case domain.StartDateFirstOverdue:
		start = d.FirstOverdueAt
	case domain.StartDateAnalysisDate:
		start = d.AnalysisDate
	case domain.StartDateCustom:
		start = d.CustomStartDate
	}

	if start == nil {
		start = d.FirstOverdueAt
	}

	return start
}
