package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"collector-engine/internal/domain"
)

func executorFixture(senders Senders, tasks *fakeTaskSink) (*Engine, *fakeExecutionRepo, *fakeActionRepo) {
	execs := newFakeExecutionRepo()
	actions := &fakeActionRepo{}
	e := newTestEngine(
		newFakeRuleRepo(),
		&fakeDebtRepo{},
		execs,
		actions,
		tasks,
		senders,
		time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local),
	)
	return e, execs, actions
}

func executorDebt() domain.EligibleDebt {
	d := baseDebt("d1")
	return domain.EligibleDebt{Debt: d, StartDate: *d.DueDate}
}

var executorRule = domain.Rule{ID: "r1", CompanyID: "co-1", Name: "late payment", Priority: 3}

func TestExecuteStep_EmailSuccess(t *testing.T) {
	email := &fakeSender{}
	e, execs, actions := executorFixture(Senders{Email: email}, &fakeTaskSink{})

	step := domain.Step{
		ID:              "s1",
		RuleID:          "r1",
		StepOrder:       1,
		ActionType:      domain.ActionEmail,
		MessageSubject:  strP("Cobrança"),
		MessageTemplate: "Olá {customer_name}",
		IsEnabled:       true,
	}

	today := date(2024, 1, 15)
	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, executorDebt(), 5, today)
	if err != nil {
		t.Fatalf("executeStep: %v", err)
	}
	if !ok {
		t.Fatal("expected success")
	}

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	if email.sent[0].Recipient != "ana@example.com" {
		t.Fatalf("wrong recipient: %s", email.sent[0].Recipient)
	}
	if email.sent[0].Message != "Olá Ana" {
		t.Fatalf("wrong message: %q", email.sent[0].Message)
	}

	rows := execs.all()
	if len(rows) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(rows))
	}
	if rows[0].Status != domain.ExecutionSent {
		t.Fatalf("expected sent status, got %s", rows[0].Status)
	}
	if rows[0].DaysOffset != 5 {
		t.Fatalf("expected days offset 5, got %d", rows[0].DaysOffset)
	}

	if len(actions.rows) != 1 || actions.rows[0].Status != domain.ExecutionSent {
		t.Fatalf("expected 1 sent audit action, got %+v", actions.rows)
	}
}

func TestExecuteStep_EmailMissingIsHandledFailure(t *testing.T) {
	email := &fakeSender{}
	e, execs, actions := executorFixture(Senders{Email: email}, &fakeTaskSink{})

	debt := executorDebt()
	debt.CustomerEmail = nil

	step := domain.Step{ID: "s1", StepOrder: 1, ActionType: domain.ActionEmail, MessageTemplate: "x", IsEnabled: true}

	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, debt, 0, date(2024, 1, 15))
	if err != nil {
		t.Fatalf("missing contact must be handled, not an error: %v", err)
	}
	if ok {
		t.Fatal("expected failure")
	}

	if len(email.sent) != 0 {
		t.Fatal("no send attempt should happen without an address")
	}

	rows := execs.all()
	if len(rows) != 1 || rows[0].Status != domain.ExecutionFailed {
		t.Fatalf("expected failed execution, got %+v", rows)
	}
	if rows[0].Error == nil || *rows[0].Error != "Email not available" {
		t.Fatalf("expected 'Email not available', got %v", rows[0].Error)
	}

	if len(actions.rows) != 1 || actions.rows[0].Status != domain.ExecutionFailed {
		t.Fatalf("audit action should mirror the failure, got %+v", actions.rows)
	}
}

func TestExecuteStep_SMSMissingPhone(t *testing.T) {
	sms := &fakeSender{}
	e, execs, _ := executorFixture(Senders{SMS: sms}, &fakeTaskSink{})

	debt := executorDebt()
	debt.CustomerPhone = nil

	step := domain.Step{ID: "s1", StepOrder: 1, ActionType: domain.ActionSMS, MessageTemplate: "x", IsEnabled: true}

	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, debt, 0, date(2024, 1, 15))
	if err != nil || ok {
		t.Fatalf("expected handled failure, got ok=%v err=%v", ok, err)
	}

	rows := execs.all()
	if rows[0].Error == nil || *rows[0].Error != "Phone not available" {
		t.Fatalf("expected 'Phone not available', got %v", rows[0].Error)
	}
}

func TestExecuteStep_WhatsAppUsesPhone(t *testing.T) {
	wa := &fakeSender{}
	e, execs, _ := executorFixture(Senders{WhatsApp: wa}, &fakeTaskSink{})

	step := domain.Step{ID: "s1", StepOrder: 1, ActionType: domain.ActionWhatsApp, MessageTemplate: "Olá {customer_name}", IsEnabled: true}

	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, executorDebt(), 0, date(2024, 1, 15))
	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}

	if len(wa.sent) != 1 {
		t.Fatalf("expected 1 whatsapp message, got %d", len(wa.sent))
	}
	if wa.sent[0].Recipient != "+5511999990000" {
		t.Fatalf("whatsapp must go to the phone number, got %s", wa.sent[0].Recipient)
	}
	if wa.sent[0].Subject != "" {
		t.Fatalf("whatsapp carries no subject, got %q", wa.sent[0].Subject)
	}
	if execs.all()[0].Status != domain.ExecutionSent {
		t.Fatal("expected sent execution")
	}
}

func TestExecuteStep_WhatsAppMissingPhone(t *testing.T) {
	wa := &fakeSender{}
	e, execs, _ := executorFixture(Senders{WhatsApp: wa}, &fakeTaskSink{})

	debt := executorDebt()
	debt.CustomerPhone = nil

	step := domain.Step{ID: "s1", StepOrder: 1, ActionType: domain.ActionWhatsApp, MessageTemplate: "x", IsEnabled: true}

	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, debt, 0, date(2024, 1, 15))
	if err != nil || ok {
		t.Fatalf("expected handled failure, got ok=%v err=%v", ok, err)
	}

	if len(wa.sent) != 0 {
		t.Fatal("no send attempt should happen without a phone")
	}
	rows := execs.all()
	if rows[0].Error == nil || *rows[0].Error != "Phone not available" {
		t.Fatalf("expected 'Phone not available', got %v", rows[0].Error)
	}
}

func TestExecuteStep_InsertFailureAborts(t *testing.T) {
	email := &fakeSender{}
	e, execs, actions := executorFixture(Senders{Email: email}, &fakeTaskSink{})
	execs.fail = true

	step := domain.Step{ID: "s1", StepOrder: 1, ActionType: domain.ActionEmail, MessageTemplate: "x", IsEnabled: true}

	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, executorDebt(), 0, date(2024, 1, 15))
	if err == nil {
		t.Fatal("persistence errors must propagate")
	}
	if ok {
		t.Fatal("a step without an execution row cannot succeed")
	}

	if len(email.sent) != 0 {
		t.Fatal("no dispatch may happen before the execution row exists")
	}
	if len(actions.rows) != 0 {
		t.Fatal("no audit action may exist for an aborted step")
	}
}

func TestExecuteStep_ProviderRejectionRecordedNotRetried(t *testing.T) {
	sms := &fakeSender{err: errors.New("sms gateway rejected the message")}
	e, execs, _ := executorFixture(Senders{SMS: sms}, &fakeTaskSink{})

	step := domain.Step{ID: "s1", StepOrder: 1, ActionType: domain.ActionSMS, MessageTemplate: "x", IsEnabled: true}

	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, executorDebt(), 0, date(2024, 1, 15))
	if err != nil || ok {
		t.Fatalf("provider rejection must be handled, got ok=%v err=%v", ok, err)
	}

	rows := execs.all()
	if len(rows) != 1 || rows[0].Status != domain.ExecutionFailed {
		t.Fatalf("expected a single failed execution, got %+v", rows)
	}
}

func TestExecuteStep_CallCreatesTask(t *testing.T) {
	tasks := &fakeTaskSink{}
	e, execs, _ := executorFixture(Senders{}, tasks)

	step := domain.Step{
		ID:              "s1",
		StepOrder:       1,
		ActionType:      domain.ActionCallHuman,
		MessageTemplate: "Ligar para {customer_name}",
		IsEnabled:       true,
	}

	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, executorDebt(), 2, date(2024, 1, 15))
	if err != nil {
		t.Fatalf("executeStep: %v", err)
	}
	if !ok {
		t.Fatal("call steps succeed locally when the sink accepts the task")
	}

	if len(tasks.tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks.tasks))
	}
	task := tasks.tasks[0]
	if task.TaskType != domain.TaskManualCall {
		t.Fatalf("expected manual_call task, got %s", task.TaskType)
	}
	if task.Description != "Ligar para Ana" {
		t.Fatalf("task should carry the rendered message, got %q", task.Description)
	}
	if task.DaysOffset != 2 || task.RuleID != "r1" || task.StepID != "s1" {
		t.Fatalf("task metadata mismatch: %+v", task)
	}

	if execs.all()[0].Status != domain.ExecutionSent {
		t.Fatal("execution should be sent after task creation")
	}
}

func TestExecuteStep_TaskActionMapsToFollowUp(t *testing.T) {
	tasks := &fakeTaskSink{}
	e, _, _ := executorFixture(Senders{}, tasks)

	step := domain.Step{ID: "s1", StepOrder: 1, ActionType: domain.ActionTask, MessageTemplate: "revisar", IsEnabled: true}

	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, executorDebt(), 0, date(2024, 1, 15))
	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
	if tasks.tasks[0].TaskType != domain.TaskFollowUp {
		t.Fatalf("expected follow_up task, got %s", tasks.tasks[0].TaskType)
	}
}

func TestExecuteStep_TaskSinkErrorFailsStep(t *testing.T) {
	tasks := &fakeTaskSink{err: errors.New("tasks table unavailable")}
	e, execs, _ := executorFixture(Senders{}, tasks)

	step := domain.Step{ID: "s1", StepOrder: 1, ActionType: domain.ActionCallAutomatic, MessageTemplate: "x", IsEnabled: true}

	ok, err := e.executeStep(context.Background(), "runs:test", executorRule, step, executorDebt(), 0, date(2024, 1, 15))
	if err != nil {
		t.Fatalf("sink errors are recorded on the execution, not propagated: %v", err)
	}
	if ok {
		t.Fatal("expected failure")
	}
	if execs.all()[0].Status != domain.ExecutionFailed {
		t.Fatal("execution should be failed on sink error")
	}
}
