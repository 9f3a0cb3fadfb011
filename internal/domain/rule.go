package domain

import "time"

type ExecutionMode string

const (
	ExecutionModeAutomatic ExecutionMode = "automatic"
	ExecutionModeManual    ExecutionMode = "manual"
)

type StartDateField string

const (
	StartDateDueDate      StartDateField = "due_date"
	StartDateFirstOverdue StartDateField = "first_overdue"
	StartDateAnalysisDate StartDateField = "analysis_date"
	StartDateCustom       StartDateField = "custom"
)

type ActionType string

const (
	ActionEmail         ActionType = "email"
	ActionSMS           ActionType = "sms"
	ActionWhatsApp      ActionType = "whatsapp"
	ActionCallAutomatic ActionType = "call_automatic"
	ActionCallHuman     ActionType = "call_human"
	ActionTask          ActionType = "task"
)

// Rule is a tenant-scoped collection policy. The engine only ever reads rules
// and stamps the two execution timestamps after a pass.
type Rule struct {
	ID        string
	CompanyID string
	Name      string

	IsActive      bool
	Priority      int
	ExecutionMode ExecutionMode

	StartDateField           StartDateField
	RequiredApprovalStatuses []string

	LastExecutionAt *time.Time
	NextExecutionAt *time.Time

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// Step is one scheduled action inside a rule. Steps sharing DaysAfterStart
// fan out to multiple channels on the same day, in ascending StepOrder.
type Step struct {
	ID     string
	RuleID string

	StepOrder      int
	DaysAfterStart int

	ActionType      ActionType
	MessageSubject  *string
	MessageTemplate string

	IsEnabled bool
}
