package domain

import "time"

const (
	ExecutionProcessing = "processing"
	ExecutionSent       = "sent"
	ExecutionFailed     = "failed"
)

// Execution is the idempotency and audit record of one step attempt against
// one debt on one calendar day. Rows are unique per (RuleID, DebtID,
// ExecutionDate, DaysOffset, StepID) — steps sharing a day offset each get
// their own row — and move processing -> sent|failed, never reopened.
type Execution struct {
	ID    string
	RunID string

	RuleID     string
	CompanyID  string
	CustomerID string
	DebtID     string

	StepID     string
	StepOrder  int
	ActionType ActionType

	DaysOffset    int
	ExecutionDate time.Time

	Status     string
	ExecutedAt *time.Time
	Error      *string

	CreatedAt *time.Time
}
