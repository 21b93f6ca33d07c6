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

// Package response synthesizes remediation plans from detection Alerts,
// gates them on auto-approval, and runs their actions against a pluggable
// effector with per-plan state, retries, and rollback.
package response

import (
	"time"

	"github.com/sentinelguard/sentinelguard/pkg/detection"
	"github.com/sentinelguard/sentinelguard/pkg/effector"
)

// ActionStatus is the lifecycle state of a single Action.
type ActionStatus string

const (
	ActionPlanned    ActionStatus = "planned"
	ActionExecuting  ActionStatus = "executing"
	ActionCompleted  ActionStatus = "completed"
	ActionFailed     ActionStatus = "failed"
	ActionRolledBack ActionStatus = "rolled_back"
)

// Action is a single containment step synthesized from an Alert's path.
type Action struct {
	ID         string                      `json:"id"`
	Kind       detection.ActionKind        `json:"kind"`
	Target     string                      `json:"target"`
	Status     ActionStatus                `json:"status"`
	ExecutedAt *time.Time                  `json:"executed_at,omitempty"`
	Result     string                      `json:"result,omitempty"`
	Reversible bool                        `json:"reversible"`
	Rollback   effector.RollbackDescriptor `json:"rollback,omitempty"`
	// Retries counts the transient failures the executor absorbed before
	// this action's most recent dispatch (whether it ultimately succeeded
	// or exhausted its attempts).
	Retries int `json:"retries,omitempty"`
}

// PlanState is the lifecycle state of a Plan.
type PlanState string

const (
	PlanPendingApproval PlanState = "pending_approval"
	PlanApproved        PlanState = "approved"
	PlanRejected        PlanState = "rejected"
	PlanExecuting       PlanState = "executing"
	PlanCompleted       PlanState = "completed"
	PlanFailed          PlanState = "failed"
)

// Plan is an ordered, stateful bundle of Actions synthesized from one Alert.
type Plan struct {
	ID            string    `json:"id"`
	AlertID       string    `json:"alert_id"`
	Actions       []*Action `json:"actions"`
	AutoApproved  bool      `json:"auto_approved"`
	HumanApproved bool      `json:"human_approved"`
	CreatedAt     time.Time `json:"created_at"`
	State         PlanState `json:"state"`
}

// reversibleKinds records which action kinds carry enough state to be
// undone via the effector; notify_operator cannot meaningfully be
// "un-notified".
var reversibleKinds = map[detection.ActionKind]bool{
	detection.ActionDisableLoginProfile: true,
	detection.ActionDetachUserPolicy:    true,
	detection.ActionDetachRolePolicy:    true,
	detection.ActionRevokeAccessKey:     true,
	detection.ActionQuarantineRole:      true,
	detection.ActionRevertPolicyVersion: true,
	detection.ActionNotifyOperator:      false,
}
