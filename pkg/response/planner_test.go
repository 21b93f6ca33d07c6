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

package response_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelguard/sentinelguard/pkg/detection"
	"github.com/sentinelguard/sentinelguard/pkg/response"
)

func eligibleAlert() detection.Alert {
	return detection.Alert{
		ID:       "alert-1",
		TargetID: "role:prod_admin",
		RecommendedActions: []detection.Recommendation{
			{Kind: detection.ActionDisableLoginProfile, Target: "user:intern_a"},
			{Kind: detection.ActionNotifyOperator, Target: "alert-1"},
		},
		AutoResponseEligible: true,
	}
}

func TestPlannerPlanAutoApproves(t *testing.T) {
	p := response.NewPlanner()
	plan, err := p.Plan(eligibleAlert())
	require.NoError(t, err)

	assert.Equal(t, response.PlanApproved, plan.State)
	assert.True(t, plan.AutoApproved)
	assert.Len(t, plan.Actions, 2)
	assert.Equal(t, response.ActionPlanned, plan.Actions[0].Status)
	assert.True(t, plan.Actions[0].Reversible)
	assert.False(t, plan.Actions[1].Reversible, "notify_operator cannot be rolled back")
}

func TestPlannerPlanRequiresApprovalWhenNotEligible(t *testing.T) {
	p := response.NewPlanner()
	alert := eligibleAlert()
	alert.AutoResponseEligible = false

	plan, err := p.Plan(alert)
	require.NoError(t, err)
	assert.Equal(t, response.PlanPendingApproval, plan.State)
	assert.False(t, plan.AutoApproved)
}

func TestPlannerPlanRejectsAlertWithNoActions(t *testing.T) {
	p := response.NewPlanner()
	alert := eligibleAlert()
	alert.RecommendedActions = nil

	_, err := p.Plan(alert)
	assert.Error(t, err)
}

func TestPlannerApproveRejectRoundTrip(t *testing.T) {
	p := response.NewPlanner()
	alert := eligibleAlert()
	alert.AutoResponseEligible = false
	plan, err := p.Plan(alert)
	require.NoError(t, err)

	got, err := p.Approve(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, response.PlanApproved, got.State)
	assert.True(t, got.HumanApproved)

	_, err = p.Approve(plan.ID)
	assert.Error(t, err, "cannot re-approve a plan that already left pending_approval")
}

func TestPlannerReject(t *testing.T) {
	p := response.NewPlanner()
	alert := eligibleAlert()
	alert.AutoResponseEligible = false
	plan, err := p.Plan(alert)
	require.NoError(t, err)

	got, err := p.Reject(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, response.PlanRejected, got.State)
}

func TestPlannerPendingAndHistory(t *testing.T) {
	p := response.NewPlanner()

	pending := eligibleAlert()
	pending.ID = "pending-alert"
	pending.AutoResponseEligible = false
	_, err := p.Plan(pending)
	require.NoError(t, err)

	auto := eligibleAlert()
	auto.ID = "auto-alert"
	autoPlan, err := p.Plan(auto)
	require.NoError(t, err)

	assert.Len(t, p.Pending(), 1)
	assert.Empty(t, p.History())

	rejected, err := p.Reject(p.Pending()[0].ID)
	require.NoError(t, err)
	assert.Equal(t, response.PlanRejected, rejected.State)
	assert.Len(t, p.History(), 1)

	_, ok := p.Get(autoPlan.ID)
	assert.True(t, ok)
}
