package domain

import "time"

// Debt is the read-only projection of an overdue debt joined with the
// debtor's contact info and the bureau-computed recovery scores.
type Debt struct {
	ID        string
	CompanyID string

	Amount  float64
	DueDate *time.Time

	FirstOverdueAt  *time.Time
	AnalysisDate    *time.Time
	CustomStartDate *time.Time

	ApprovalStatus string

	CustomerID    string
	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string

	RecoveryScore *int
	RecoveryClass *string
}

// HasEmail reports whether the debt carries a usable email address.
func (d Debt) HasEmail() bool {
	return d.CustomerEmail != nil && *d.CustomerEmail != ""
}

// HasPhone reports whether the debt carries a usable phone number.
func (d Debt) HasPhone() bool {
	return d.CustomerPhone != nil && *d.CustomerPhone != ""
}

// EligibleDebt is a debt that passed every gate for a rule, with the rule's
// reference date already resolved. Recomputed fresh on every pass, never stored.
type EligibleDebt struct {
	Debt

	StartDate time.Time
}
