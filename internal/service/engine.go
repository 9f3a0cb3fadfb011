package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"collector-engine/internal/clients"
	"collector-engine/internal/domain"

	"github.com/google/uuid"
)

type RuleRepository interface {
	ListActiveAutomatic(ctx context.Context) ([]domain.Rule, error)
	ListSteps(ctx context.Context, ruleID string) ([]domain.Step, error)
	StampExecution(ctx context.Context, ruleID string, last, next time.Time) error
}

type DebtRepository interface {
	ListByCompany(ctx context.Context, companyID string) ([]domain.Debt, error)
}

type ExecutionRepository interface {
	Exists(ctx context.Context, ruleID, debtID string, executionDate time.Time, daysOffset int) (bool, error)
	Insert(ctx context.Context, e *domain.Execution) error
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, at time.Time, reason string) error
	ListByRun(ctx context.Context, runID string) ([]domain.Execution, error)
}

type ActionRepository interface {
	Insert(ctx context.Context, a *domain.CollectionAction) error
}

type TaskSink interface {
	CreateTask(ctx context.Context, t *domain.CollectionTask) error
}

// NotificationSender is one outbound channel. Implementations return an error
// both for transport failures and for provider-side rejections; the engine
// treats either as a single failed attempt.
type NotificationSender interface {
	Send(ctx context.Context, recipient, message, subject string) error
}

// Senders groups the three channel implementations injected into the engine.
type Senders struct {
	Email    NotificationSender
	SMS      NotificationSender
	WhatsApp NotificationSender
}

type Options struct {
	StepTimeout time.Duration
	Now         func() time.Time
}

const (
	runSetKey  = "engine_run_ids"
	runTTL     = 24 * time.Hour
	runLockKey = "engine_run_lock"
	runLockTTL = time.Hour
)

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

var (
	ErrRunInProgress = errors.New("an engine run is already in progress")
	ErrRunNotFound   = errors.New("run not found")
)

type RunStatus struct {
	RunID          string     `json:"run_id"`
	UserID         int64      `json:"user_id"`
	Status         string     `json:"status"`
	RulesEvaluated int        `json:"rules_evaluated"`
	Processed      int        `json:"processed"`
	ReportURL      *string    `json:"report_url"`
	Error          *string    `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

type RunResult struct {
	Processed      int
	RulesEvaluated int
}

type Engine struct {
	rules      RuleRepository
	debts      DebtRepository
	executions ExecutionRepository
	actions    ActionRepository
	tasks      TaskSink

	senders Senders

	redis   *clients.RedisClient
	ws      *clients.WebSocketClient
	storage *clients.StorageClient
	s3      *clients.S3Client

	stepTimeout time.Duration
	now         func() time.Time
}

func NewEngine(
	rules RuleRepository,
	debts DebtRepository,
	executions ExecutionRepository,
	actions ActionRepository,
	tasks TaskSink,
	senders Senders,
	redis *clients.RedisClient,
	ws *clients.WebSocketClient,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	opts Options,
) *Engine {
	stepTimeout := opts.StepTimeout
	if stepTimeout == 0 {
		stepTimeout = 10 * time.Second
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		rules:       rules,
		debts:       debts,
		executions:  executions,
		actions:     actions,
		tasks:       tasks,
		senders:     senders,
		redis:       redis,
		ws:          ws,
		storage:     storage,
		s3:          s3,
		stepTimeout: stepTimeout,
		now:         now,
	}
}

// StartRun acquires the run lock, registers a running status and kicks off a
// full pass in the background. Returns ErrRunInProgress while another run
// holds the lock.
func (e *Engine) StartRun(ctx context.Context, userID int64) (string, error) {
	runID := fmt.Sprintf("runs:%s", uuid.NewString())

	if e.redis != nil {
		ok, err := e.redis.SetNX(ctx, runLockKey, runID, runLockTTL)
		if err != nil {
			return "", fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return "", ErrRunInProgress
		}
	}

	status := &RunStatus{
		RunID:     runID,
		UserID:    userID,
		Status:    RunRunning,
		StartedAt: e.now(),
	}
	_ = e.saveRunStatus(ctx, status)

	go e.runBackground(runID, userID, status)

	return runID, nil
}

func (e *Engine) runBackground(runID string, userID int64, status *RunStatus) {
	ctx := context.Background()

	defer func() {
		if e.redis != nil {
			_ = e.redis.Del(ctx, runLockKey)
		}
	}()

	res, err := e.Run(ctx, runID, userID)

	finished := e.now()
	status.RulesEvaluated = res.RulesEvaluated
	status.Processed = res.Processed
	status.FinishedAt = &finished

	if err != nil {
		msg := err.Error()
		status.Status = RunFailed
		status.Error = &msg
		_ = e.saveRunStatus(ctx, status)

		log.Printf("[ENGINE] run %s failed: %v", runID, err)
		if e.ws != nil {
			_ = e.ws.NotifyRunFailed(ctx, userID, runID, msg)
		}
		return
	}

	reportURL, rerr := e.buildRunReport(ctx, runID)
	if rerr != nil {
		log.Printf("[ENGINE] run %s: report generation failed: %v", runID, rerr)
	}
	if reportURL != "" {
		status.ReportURL = &reportURL
	}

	status.Status = RunCompleted
	_ = e.saveRunStatus(ctx, status)

	log.Printf("[ENGINE] run %s complete: %d rules evaluated, %d actions dispatched",
		runID, res.RulesEvaluated, res.Processed)

	if e.ws != nil {
		_ = e.ws.NotifyRunComplete(ctx, userID, runID, res.RulesEvaluated, res.Processed, reportURL)
	}
}

// Run executes one full synchronous pass over every active automatic rule.
// A rule failing does not stop the others; only a failure to load the rule
// set at all aborts the run.
func (e *Engine) Run(ctx context.Context, runID string, userID int64) (RunResult, error) {
	var res RunResult

	rules, err := e.rules.ListActiveAutomatic(ctx)
	if err != nil {
		return res, fmt.Errorf("load rules: %w", err)
	}

	if len(rules) == 0 {
		log.Printf("[ENGINE] run %s: no active automatic rules", runID)
		return res, nil
	}

	today := midnight(e.now())

	for i, rule := range rules {
		sent, err := e.processRule(ctx, runID, rule, today)
		res.RulesEvaluated++
		res.Processed += sent

		if err != nil {
			log.Printf("[ENGINE] rule %s (%q): %v", rule.ID, rule.Name, err)
		}

		if e.ws != nil {
			_ = e.ws.NotifyRunProgress(ctx, userID, runID, i+1, len(rules), res.Processed)
		}
	}

	return res, nil
}

// processRule runs the eligibility -> scheduling -> idempotency -> execution
// pipeline for one rule. Panics anywhere inside are contained here so the
// remaining rules still get their pass.
func (e *Engine) processRule(ctx context.Context, runID string, rule domain.Rule, today time.Time) (sent int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule pipeline panicked: %v", r)
		}
	}()

	steps, err := e.rules.ListSteps(ctx, rule.ID)
	if err != nil {
		return 0, fmt.Errorf("load steps: %w", err)
	}

	eligible, err := e.eligibleDebts(ctx, rule)
	if err != nil {
		return 0, fmt.Errorf("load eligible debts: %w", err)
	}

	log.Printf("[ENGINE] rule %q: %d eligible debts, %d steps", rule.Name, len(eligible), len(steps))

	for _, debt := range eligible {
		offset := daysBetween(debt.StartDate, today)

		due := stepsDueToday(steps, offset)
		if len(due) == 0 {
			continue
		}

		done, err := e.executions.Exists(ctx, rule.ID, debt.ID, today, offset)
		if err != nil {
			log.Printf("[ENGINE] rule %q: idempotency check for debt %s: %v", rule.Name, debt.ID, err)
			continue
		}
		if done {
			// whole step set already fired for this debt today
			continue
		}

		for _, step := range due {
			ok, err := e.executeStep(ctx, runID, rule, step, debt, offset, today)
			if err != nil {
				log.Printf("[ENGINE] rule %q step %d debt %s: %v", rule.Name, step.StepOrder, debt.ID, err)
			}
			if ok {
				sent++
			}
		}
	}

	now := e.now()
	if err := e.rules.StampExecution(ctx, rule.ID, now, nextExecutionAt(now)); err != nil {
		log.Printf("[ENGINE] rule %q: stamp execution: %v", rule.Name, err)
	}

	return sent, nil
}

func (e *Engine) saveRunStatus(ctx context.Context, st *RunStatus) error {
	if e.redis == nil {
		return nil
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := e.redis.Set(ctx, st.RunID, string(data), runTTL); err != nil {
		return err
	}

	return e.redis.SAdd(ctx, runSetKey, st.RunID)
}

// GetRuns returns recent run statuses, newest first.
func (e *Engine) GetRuns(ctx context.Context) ([]RunStatus, error) {
	if e.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := e.redis.SMembers(ctx, runSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get run keys: %w", err)
	}

	var statuses []RunStatus
	for _, key := range keys {
		data, err := e.redis.Get(ctx, key)
		if err != nil {
			continue
		}

		var st RunStatus
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			continue
		}

		statuses = append(statuses, st)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].StartedAt.After(statuses[j].StartedAt)
	})

	return statuses, nil
}

func (e *Engine) GetRun(ctx context.Context, runID string) (*RunStatus, error) {
	if e.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := e.redis.Get(ctx, runID)
	if err != nil {
		return nil, ErrRunNotFound
	}

	var st RunStatus
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("failed to parse run status: %w", err)
	}

	return &st, nil
}
