package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"collector-engine/internal/domain"

	"github.com/google/uuid"
)

const (
	errEmailNotAvailable = "Email not available"
	errPhoneNotAvailable = "Phone not available"
)

// executeStep runs one step against one debt: open a processing execution
// row, render the template, dispatch, close the row and mirror the outcome
// into the collection_actions audit log. A dispatch failure (missing contact,
// provider rejection, timeout) is handled — recorded as failed, never
// retried. Only persistence errors propagate.
func (e *Engine) executeStep(
	ctx context.Context,
	runID string,
	rule domain.Rule,
	step domain.Step,
	debt domain.EligibleDebt,
	daysOffset int,
	today time.Time,
) (bool, error) {
	exec := &domain.Execution{
		ID:            uuid.NewString(),
		RunID:         runID,
		RuleID:        rule.ID,
		CompanyID:     rule.CompanyID,
		CustomerID:    debt.CustomerID,
		DebtID:        debt.ID,
		StepID:        step.ID,
		StepOrder:     step.StepOrder,
		ActionType:    step.ActionType,
		DaysOffset:    daysOffset,
		ExecutionDate: today,
		Status:        domain.ExecutionProcessing,
	}

	if err := e.executions.Insert(ctx, exec); err != nil {
		return false, fmt.Errorf("insert execution: %w", err)
	}

	message := renderTemplate(step.MessageTemplate, debt, e.now())
	subject := ""
	if step.MessageSubject != nil {
		subject = renderTemplate(*step.MessageSubject, debt, e.now())
	}

	dispatchErr := e.dispatch(ctx, rule, step, debt, daysOffset, message, subject)

	now := e.now()
	status := domain.ExecutionSent
	if dispatchErr != nil {
		status = domain.ExecutionFailed
	}

	if dispatchErr == nil {
		if err := e.executions.MarkSent(ctx, exec.ID, now); err != nil {
			return false, fmt.Errorf("mark execution sent: %w", err)
		}
	} else {
		if err := e.executions.MarkFailed(ctx, exec.ID, now, dispatchErr.Error()); err != nil {
			return false, fmt.Errorf("mark execution failed: %w", err)
		}
	}

	action := &domain.CollectionAction{
		ID:          uuid.NewString(),
		ExecutionID: exec.ID,
		CustomerID:  debt.CustomerID,
		CompanyID:   rule.CompanyID,
		DebtID:      debt.ID,
		ActionType:  step.ActionType,
		Status:      status,
		Message:     message,
	}
	if err := e.actions.Insert(ctx, action); err != nil {
		// audit row is best-effort; the execution row already holds the outcome
		log.Printf("[ENGINE] insert collection action for execution %s: %v", exec.ID, err)
	}

	return dispatchErr == nil, nil
}

// dispatch routes the rendered message through the step's channel under a
// bounded timeout. Call and task actions produce collection tasks instead of
// an outbound message.
func (e *Engine) dispatch(
	ctx context.Context,
	rule domain.Rule,
	step domain.Step,
	debt domain.EligibleDebt,
	daysOffset int,
	message string,
	subject string,
) error {
	callCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	switch step.ActionType {
	case domain.ActionEmail:
		if !debt.HasEmail() {
			return errors.New(errEmailNotAvailable)
		}
		if e.senders.Email == nil {
			return errors.New("email sender not configured")
		}
		return e.senders.Email.Send(callCtx, *debt.CustomerEmail, message, subject)

	case domain.ActionSMS:
		if !debt.HasPhone() {
			return errors.New(errPhoneNotAvailable)
		}
		if e.senders.SMS == nil {
			return errors.New("sms sender not configured")
		}
		return e.senders.SMS.Send(callCtx, *debt.CustomerPhone, message, "")

	case domain.ActionWhatsApp:
		if !debt.HasPhone() {
			return errors.New(errPhoneNotAvailable)
		}
		if e.senders.WhatsApp == nil {
			return errors.New("whatsapp sender not configured")
		}
		return e.senders.WhatsApp.Send(callCtx, *debt.CustomerPhone, message, "")

	case domain.ActionCallAutomatic, domain.ActionCallHuman, domain.ActionTask:
		taskType, _ := domain.TaskTypeForAction(step.ActionType)
		task := &domain.CollectionTask{
			ID:          uuid.NewString(),
			CustomerID:  debt.CustomerID,
			CompanyID:   rule.CompanyID,
			TaskType:    taskType,
			Status:      domain.TaskStatusPending,
			Priority:    rule.Priority,
			Description: message,
			DebtID:      debt.ID,
			RuleID:      rule.ID,
			StepID:      step.ID,
			DaysOffset:  daysOffset,
		}
		return e.tasks.CreateTask(callCtx, task)

	default:
		return fmt.Errorf("unknown action type %q", step.ActionType)
	}
}
