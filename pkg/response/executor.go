/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package response

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sentinelguard/sentinelguard/internal/resilience"
	"github.com/sentinelguard/sentinelguard/pkg/effector"
)

// ExecutionDeadline bounds a single plan's end-to-end execution.
const ExecutionDeadline = 60 * time.Second

// AuditFunc is invoked by the executor for every state transition it makes,
// so callers can mirror plan/action history into an append-only log
// without the executor importing the audit package directly.
type AuditFunc func(verb, actor, target, status, detail string)

// Executor runs a Plan's actions against an Effector, one plan at a time
// per plan ID, with retry/backoff and circuit breaking.
type Executor struct {
	eff     effector.Effector
	breaker *resilience.Breaker
	audit   AuditFunc

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewExecutor builds an Executor that applies actions via eff. audit may be
// nil, in which case transitions are not recorded.
func NewExecutor(eff effector.Effector, audit AuditFunc) *Executor {
	return &Executor{
		eff:     eff,
		breaker: resilience.NewBreaker("response-executor"),
		audit:   audit,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (e *Executor) lockFor(planID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	l, ok := e.locks[planID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[planID] = l
	}
	return l
}

func (e *Executor) logf(verb, actor, target, status, detail string) {
	if e.audit != nil {
		e.audit(verb, actor, target, status, detail)
	}
}

// Execute runs every action in plan in order, unconditionally, including
// actions already marked completed: re-running execute on a completed (or
// previously failed) plan re-executes the full action list, relying on
// the effector's idempotency guarantee rather than tracking per-action
// completion across runs.
func (e *Executor) Execute(ctx context.Context, plan *Plan) error {
	lock := e.lockFor(plan.ID)
	lock.Lock()
	defer lock.Unlock()

	switch plan.State {
	case PlanApproved, PlanFailed, PlanCompleted:
	default:
		return fmt.Errorf("response: plan %s is %s, not approved", plan.ID, plan.State)
	}

	ctx, cancel := context.WithTimeout(ctx, ExecutionDeadline)
	defer cancel()

	plan.State = PlanExecuting
	e.logf("plan.execute", "system", plan.ID, "started", "")

	for _, act := range plan.Actions {
		if err := e.runAction(ctx, act); err != nil {
			plan.State = PlanFailed
			e.logf("plan.execute", "system", plan.ID, "failed", err.Error())
			return err
		}
	}

	plan.State = PlanCompleted
	e.logf("plan.execute", "system", plan.ID, "completed", "")
	return nil
}

func (e *Executor) runAction(ctx context.Context, act *Action) error {
	act.Status = ActionExecuting

	result, attempts, err := e.breaker.Do(ctx, effector.IsTransient, func(ctx context.Context) (any, error) {
		ok, result, rollback, err := e.eff.Apply(ctx, string(act.Kind), act.Target, nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("response: effector reported failure for action %s on %s", act.Kind, act.Target)
		}
		return applyOutcome{result: result, rollback: rollback}, nil
	})
	act.Retries = attempts - 1
	if err != nil {
		act.Status = ActionFailed
		act.Result = withRetryNote(err.Error(), act.Retries)
		e.logf("action.execute", "system", act.Target, "failed", act.Result)
		return err
	}

	out := result.(applyOutcome)
	now := time.Now()
	act.Status = ActionCompleted
	act.ExecutedAt = &now
	act.Result = withRetryNote(out.result, act.Retries)
	act.Rollback = out.rollback
	e.logf("action.execute", "system", act.Target, "completed", act.Result)
	return nil
}

// withRetryNote appends the retry count to a result string when the action
// needed more than its initial attempt, so audit records of a retried
// action show how many retries it absorbed.
func withRetryNote(result string, retries int) string {
	if retries <= 0 {
		return result
	}
	if retries == 1 {
		return fmt.Sprintf("%s (after 1 retry)", result)
	}
	return fmt.Sprintf("%s (after %d retries)", result, retries)
}

type applyOutcome struct {
	result   string
	rollback effector.RollbackDescriptor
}

// RollbackAction reverses a single completed, reversible action within
// plan, identified by actionID. A rollback failure is recorded and does
// not alter the action's completed status unless the rollback itself
// later succeeds on retry.
func (e *Executor) RollbackAction(ctx context.Context, plan *Plan, actionID string) error {
	lock := e.lockFor(plan.ID)
	lock.Lock()
	defer lock.Unlock()

	act := findAction(plan, actionID)
	if act == nil {
		return fmt.Errorf("response: action %s not found in plan %s", actionID, plan.ID)
	}
	if !act.Reversible {
		return fmt.Errorf("response: action %s (%s) is not reversible", act.ID, act.Kind)
	}
	if act.Status != ActionCompleted {
		return fmt.Errorf("response: action %s is %s, not completed", act.ID, act.Status)
	}

	ok, result, err := e.eff.Reverse(ctx, string(act.Kind), act.Target, act.Rollback)
	if err != nil || !ok {
		e.logf("action.rollback", "system", act.Target, "failed", fmt.Sprint(err))
		return fmt.Errorf("response: rollback failed for action %s on %s: %w", act.Kind, act.Target, err)
	}
	act.Status = ActionRolledBack
	act.Result = result
	e.logf("action.rollback", "system", act.Target, "completed", result)
	return nil
}

func findAction(plan *Plan, actionID string) *Action {
	for _, act := range plan.Actions {
		if act.ID == actionID {
			return act
		}
	}
	return nil
}
