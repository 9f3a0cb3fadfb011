package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"collector-engine/internal/domain"
)

type fakeRuleRepo struct {
	rules    []domain.Rule
	steps    map[string][]domain.Step
	stepsErr map[string]error

	stamped map[string][2]time.Time
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{
		steps:    make(map[string][]domain.Step),
		stepsErr: make(map[string]error),
		stamped:  make(map[string][2]time.Time),
	}
}

func (f *fakeRuleRepo) ListActiveAutomatic(ctx context.Context) ([]domain.Rule, error) {
	return f.rules, nil
}

func (f *fakeRuleRepo) ListSteps(ctx context.Context, ruleID string) ([]domain.Step, error) {
	if err := f.stepsErr[ruleID]; err != nil {
		return nil, err
	}
	return f.steps[ruleID], nil
}

func (f *fakeRuleRepo) StampExecution(ctx context.Context, ruleID string, last, next time.Time) error {
	f.stamped[ruleID] = [2]time.Time{last, next}
	return nil
}

type fakeDebtRepo struct {
	debts map[string][]domain.Debt
}

func (f *fakeDebtRepo) ListByCompany(ctx context.Context, companyID string) ([]domain.Debt, error) {
	return f.debts[companyID], nil
}

type fakeExecutionRepo struct {
	mu    sync.Mutex
	rows  []*domain.Execution
	byID  map[string]*domain.Execution
	fail  bool
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{byID: make(map[string]*domain.Execution)}
}

func (f *fakeExecutionRepo) Exists(ctx context.Context, ruleID, debtID string, executionDate time.Time, daysOffset int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.RuleID == ruleID &&
			e.DebtID == debtID &&
			e.ExecutionDate.Equal(executionDate) &&
			e.DaysOffset == daysOffset &&
			e.Status != domain.ExecutionProcessing {
			return true, nil
		}
	}
	return false, nil
}

// Insert enforces the same per-step unique key as the collection_executions
// table, so tests catch inserts that would collide with the index.
func (f *fakeExecutionRepo) Insert(ctx context.Context, e *domain.Execution) error {
	if f.fail {
		return errors.New("insert failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.RuleID == e.RuleID &&
			r.DebtID == e.DebtID &&
			r.ExecutionDate.Equal(e.ExecutionDate) &&
			r.DaysOffset == e.DaysOffset &&
			r.StepID == e.StepID {
			return errors.New(`duplicate key value violates unique constraint "ux_executions_rule_debt_date_offset_step"`)
		}
	}
	cp := *e
	f.rows = append(f.rows, &cp)
	f.byID[cp.ID] = &cp
	return nil
}

func (f *fakeExecutionRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("execution %s not found", id)
	}
	e.Status = domain.ExecutionSent
	e.ExecutedAt = &at
	return nil
}

func (f *fakeExecutionRepo) MarkFailed(ctx context.Context, id string, at time.Time, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("execution %s not found", id)
	}
	e.Status = domain.ExecutionFailed
	e.ExecutedAt = &at
	e.Error = &reason
	return nil
}

func (f *fakeExecutionRepo) ListByRun(ctx context.Context, runID string) ([]domain.Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Execution
	for _, e := range f.rows {
		if e.RunID == runID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeExecutionRepo) all() []domain.Execution {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Execution, 0, len(f.rows))
	for _, e := range f.rows {
		out = append(out, *e)
	}
	return out
}

type fakeActionRepo struct {
	rows []domain.CollectionAction
}

func (f *fakeActionRepo) Insert(ctx context.Context, a *domain.CollectionAction) error {
	f.rows = append(f.rows, *a)
	return nil
}

type fakeTaskSink struct {
	tasks []domain.CollectionTask
	err   error
}

func (f *fakeTaskSink) CreateTask(ctx context.Context, t *domain.CollectionTask) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, *t)
	return nil
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

type sentMessage struct {
	Recipient string
	Message   string
	Subject   string
}

func (f *fakeSender) Send(ctx context.Context, recipient, message, subject string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{Recipient: recipient, Message: message, Subject: subject})
	return nil
}

func strP(s string) *string { return &s }
func intP(i int) *int       { return &i }
func timeP(t time.Time) *time.Time {
	return &t
}

// newTestEngine wires an engine over in-memory fakes with a frozen clock.
func newTestEngine(
	rules *fakeRuleRepo,
	debts *fakeDebtRepo,
	execs *fakeExecutionRepo,
	actions *fakeActionRepo,
	tasks *fakeTaskSink,
	senders Senders,
	now time.Time,
) *Engine {
	return NewEngine(
		rules,
		debts,
		execs,
		actions,
		tasks,
		senders,
		nil, nil, nil, nil,
		Options{Now: func() time.Time { return now }},
	)
}
