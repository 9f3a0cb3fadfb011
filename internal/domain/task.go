package domain

import "time"

type TaskType string

const (
	TaskAutomaticCall TaskType = "automatic_call"
	TaskManualCall    TaskType = "manual_call"
	TaskFollowUp      TaskType = "follow_up"
)

const TaskStatusPending = "pending"

// CollectionTask is a human-followup work item produced by call and task
// steps. Its lifecycle past pending is owned by the operations tooling.
type CollectionTask struct {
	ID         string
	CustomerID string
	CompanyID  string

	TaskType    TaskType
	Status      string
	Priority    int
	Description string

	DebtID     string
	RuleID     string
	StepID     string
	DaysOffset int

	CreatedAt *time.Time
}

// TaskTypeForAction maps a step action type to the task type it produces.
// Only call and task actions resolve to tasks.
func TaskTypeForAction(a ActionType) (TaskType, bool) {
	switch a {
	case ActionCallAutomatic:
		return TaskAutomaticCall, true
	case ActionCallHuman:
		return TaskManualCall, true
	case ActionTask:
		return TaskFollowUp, true
	default:
		return "", false
	}
}
