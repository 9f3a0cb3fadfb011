package domain

import "time"

// CollectionAction is the denormalized audit row written for every dispatch
// attempt, mirroring the execution outcome for operational reporting. Written
// once, never mutated.
type CollectionAction struct {
	ID          string
	ExecutionID string

	CustomerID string
	CompanyID  string
	DebtID     string

	ActionType ActionType
	Status     string
	Message    string

	CreatedAt *time.Time
}
