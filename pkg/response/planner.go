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
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sentinelguard/sentinelguard/pkg/detection"
)

// Planner synthesizes Plans from Alerts and tracks them until an Executor
// (or an operator) moves them forward.
type Planner struct {
	mu    sync.RWMutex
	plans map[string]*Plan
}

// NewPlanner returns an empty Planner.
func NewPlanner() *Planner {
	return &Planner{plans: make(map[string]*Plan)}
}

// Plan builds a Plan with one action per recommended action of alert, in the
// order given (the detection engine has already deduplicated them), and
// marks it auto-approved iff the alert cleared the detection engine's
// eligibility gate. It never talks to an effector; execution is a separate
// step.
func (p *Planner) Plan(alert detection.Alert) (*Plan, error) {
	if len(alert.RecommendedActions) == 0 {
		return nil, fmt.Errorf("response: alert %s has no recommended actions", alert.ID)
	}

	actions := make([]*Action, 0, len(alert.RecommendedActions))
	for _, rec := range alert.RecommendedActions {
		actions = append(actions, &Action{
			ID:         uuid.NewString(),
			Kind:       rec.Kind,
			Target:     rec.Target,
			Status:     ActionPlanned,
			Reversible: reversibleKinds[rec.Kind],
		})
	}

	plan := &Plan{
		ID:           uuid.NewString(),
		AlertID:      alert.ID,
		Actions:      actions,
		AutoApproved: alert.AutoResponseEligible,
		State:        PlanPendingApproval,
	}
	if plan.AutoApproved {
		plan.State = PlanApproved
	}

	p.mu.Lock()
	p.plans[plan.ID] = plan
	p.mu.Unlock()
	return plan, nil
}

// All returns every plan regardless of state, for snapshotting.
func (p *Planner) All() []*Plan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Plan, 0, len(p.plans))
	for _, pl := range p.plans {
		out = append(out, pl)
	}
	return out
}

// Restore seeds the planner from a previously persisted plan set, replacing
// whatever it currently holds. Used only at startup, before any Plan call.
func (p *Planner) Restore(plans []*Plan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plans = make(map[string]*Plan, len(plans))
	for _, pl := range plans {
		p.plans[pl.ID] = pl
	}
}

// Get returns the plan with the given id, if any.
func (p *Planner) Get(id string) (*Plan, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pl, ok := p.plans[id]
	return pl, ok
}

// FindByActionID returns the plan containing the action with the given
// id, if any.
func (p *Planner) FindByActionID(actionID string) (*Plan, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, pl := range p.plans {
		for _, act := range pl.Actions {
			if act.ID == actionID {
				return pl, true
			}
		}
	}
	return nil, false
}

// Pending returns all plans awaiting human approval, in no particular order.
func (p *Planner) Pending() []*Plan {
	return p.filter(func(pl *Plan) bool { return pl.State == PlanPendingApproval })
}

// History returns all completed, failed, or rejected plans; plans still
// executing are not included.
func (p *Planner) History() []*Plan {
	return p.filter(func(pl *Plan) bool {
		return pl.State == PlanCompleted || pl.State == PlanFailed || pl.State == PlanRejected
	})
}

func (p *Planner) filter(keep func(*Plan) bool) []*Plan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*Plan
	for _, pl := range p.plans {
		if keep(pl) {
			out = append(out, pl)
		}
	}
	return out
}

// Approve transitions a pending_approval plan to approved.
func (p *Planner) Approve(id string) (*Plan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl, ok := p.plans[id]
	if !ok {
		return nil, fmt.Errorf("response: plan %s not found", id)
	}
	if pl.State != PlanPendingApproval {
		return nil, fmt.Errorf("response: plan %s is %s, not pending_approval", id, pl.State)
	}
	pl.HumanApproved = true
	pl.State = PlanApproved
	return pl, nil
}

// Reject transitions a pending_approval plan to rejected.
func (p *Planner) Reject(id string) (*Plan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl, ok := p.plans[id]
	if !ok {
		return nil, fmt.Errorf("response: plan %s not found", id)
	}
	if pl.State != PlanPendingApproval {
		return nil, fmt.Errorf("response: plan %s is %s, not pending_approval", id, pl.State)
	}
	pl.State = PlanRejected
	return pl, nil
}
