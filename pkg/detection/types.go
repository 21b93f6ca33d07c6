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

// Package detection runs bounded depth-first exploration over the identity
// graph to find privilege-escalation attack paths and emits risk-scored
// Alerts for every path that clears the policy gates.
package detection

import (
	"time"

	"github.com/sentinelguard/sentinelguard/pkg/graph"
)

// Tunable detection parameters and their spec-mandated defaults.
const (
	DefaultMinPrivilegeDelta     = 20
	DefaultLowPrivilegeThreshold = 40
	DefaultHighPrivilegeThreshold = 70
	DefaultMaxPathDepth          = 5
	DefaultBlastRadiusDepth      = 3
	DefaultBlastRadiusCap        = 1000
	MaxRecommendations           = 5
)

// Severity bands an Alert's composite risk score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ActionKind enumerates the containment actions the response planner can
// synthesize. Defined here (not in pkg/response) because Alerts carry a
// recommended-actions list computed purely from the path's edge kinds,
// independent of any Plan.
type ActionKind string

const (
	ActionDisableLoginProfile ActionKind = "disable_login_profile"
	ActionDetachUserPolicy    ActionKind = "detach_user_policy"
	ActionDetachRolePolicy    ActionKind = "detach_role_policy"
	ActionRevokeAccessKey     ActionKind = "revoke_access_key"
	ActionQuarantineRole      ActionKind = "quarantine_role"
	ActionRevertPolicyVersion ActionKind = "revert_policy_version"
	ActionNotifyOperator      ActionKind = "notify_operator"
)

// Path is an ordered sequence of node identifiers of length >= 2 together
// with the edges connecting consecutive nodes.
type Path struct {
	NodeIDs []string     `json:"node_ids"`
	Edges   []graph.Edge `json:"edges"`
}

// Recommendation pairs a recommended action kind with the concrete entity
// it should act on, e.g. (disable_login_profile, user:intern_a) or
// (detach_role_policy, role:analytics_admin|policy:ds_custom). The response
// planner turns each Recommendation directly into an Action, without
// re-deriving targets from the path itself.
type Recommendation struct {
	Kind   ActionKind `json:"kind"`
	Target string     `json:"target"`
}

// Alert is a risk-scored privilege-escalation finding.
type Alert struct {
	ID                   string           `json:"id"`
	Path                 Path             `json:"path"`
	SourceID             string           `json:"source_id"`
	TargetID             string           `json:"target_id"`
	PrivilegeDelta        int              `json:"privilege_delta"`
	Confidence           float64          `json:"confidence"`
	BlastRadius          int              `json:"blast_radius"`
	Severity             Severity         `json:"severity"`
	DetectedAt           time.Time        `json:"detected_at"`
	RecommendedActions   []Recommendation `json:"recommended_actions"`
	AutoResponseEligible bool             `json:"auto_response_eligible"`
}

// Params configures a single scan invocation.
type Params struct {
	// StartNode restricts the candidate source set to a single node, if set.
	StartNode string
	// MinDelta overrides DefaultMinPrivilegeDelta when non-nil.
	MinDelta *int
	// ScanBudget bounds the scan's wall-clock time; zero uses the default (30s).
	ScanBudget time.Duration
}

// Result is the set of alerts produced by one Scan call.
type Result struct {
	Alerts []Alert
}

// PlanHandler is invoked for every newly emitted, auto-response-eligible
// Alert. It is the only dynamic coupling between detection and response.
type PlanHandler func(Alert)
