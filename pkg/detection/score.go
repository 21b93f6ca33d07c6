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

package detection

import (
	"math"

	"github.com/sentinelguard/sentinelguard/pkg/graph"
)

// edgeConfidence returns the per-edge confidence weight from the fixed
// table in §4.2 of the specification. "can_assume with satisfied trust" is
// approximated as: the edge carries no explicit "trust_unsatisfied"
// attribute (the ingester is expected to omit can_assume edges entirely
// when trust is not established, since the graph only models edges that
// actually exist; this attribute exists to let tests exercise the
// unsatisfied branch explicitly).
func edgeConfidence(e graph.Edge) float64 {
	switch e.Kind {
	case graph.EdgeCanAssume:
		if e.Attributes != nil && e.Attributes["trust_unsatisfied"] == "true" {
			return 0.50
		}
		return 0.95
	case graph.EdgeAllowsAction:
		switch e.Action() {
		case "iam:PassRole":
			return 0.90
		case "iam:CreatePolicyVersion", "iam:SetDefaultPolicyVersion":
			return 0.85
		case "sts:AssumeRole":
			return 0.80
		default:
			return 0.50
		}
	case graph.EdgeMemberOf, graph.EdgeHasPolicy:
		return 0.99
	default:
		return 0.50
	}
}

// pathConfidence multiplies the per-edge weights along a path and clamps
// the result to [0,1].
func pathConfidence(edges []graph.Edge) float64 {
	c := 1.0
	for _, e := range edges {
		c *= edgeConfidence(e)
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// severityFor computes the severity band from the composite risk score.
func severityFor(confidence float64, privilegeDelta, blastRadius int) (Severity, float64) {
	score := confidence * float64(privilegeDelta) * math.Log2(1+float64(blastRadius))
	return bandFor(score), score
}

// bandFor maps a composite risk score to its severity band.
func bandFor(score float64) Severity {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 40:
		return SeverityHigh
	case score >= 15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// autoResponseEligible implements the auto-eligibility rule: confidence
// >= 0.85, blast radius <= 50, and severity in {medium, high}. Critical is
// never auto-eligible; low never triggers a plan at all.
func autoResponseEligible(confidence float64, blastRadius int, severity Severity) bool {
	if severity != SeverityMedium && severity != SeverityHigh {
		return false
	}
	return confidence >= 0.85 && blastRadius <= 50
}

// escalationKinds is the set of edge kinds considered capable of carrying
// privilege escalation forward even across a lower-privileged hop (e.g. a
// policy or group node, which typically has privilege_level 0 but is a
// necessary intermediate step toward a privileged role). Only "owns" is
// treated as purely administrative/lateral and therefore prunable.
var escalationKinds = map[graph.EdgeKind]bool{
	graph.EdgeMemberOf:     true,
	graph.EdgeHasPolicy:    true,
	graph.EdgeCanAssume:    true,
	graph.EdgeAllowsAction: true,
	graph.EdgeTrusts:       true,
}

// resolveHasPolicy identifies which endpoint of a has_policy edge is the
// policy node and which is the entity it governs, by node kind rather than
// by a fixed Source/Target convention: the graph models has_policy edges in
// both directions depending on the ingester (policy-to-role for role
// attachments, user-to-policy for direct principal attachments), so the
// edge's Source/Target alone doesn't say which side is which.
func resolveHasPolicy(e graph.Edge, store *graph.Store) (policyID, entityID string, entityKind graph.NodeKind, ok bool) {
	src, srcOK := store.GetNode(e.Source)
	dst, dstOK := store.GetNode(e.Target)
	if !srcOK || !dstOK {
		return "", "", "", false
	}
	switch {
	case src.Kind == graph.NodePolicy:
		return src.ID, dst.ID, dst.Kind, true
	case dst.Kind == graph.NodePolicy:
		return dst.ID, src.ID, src.Kind, true
	default:
		return "", "", "", false
	}
}

// recommendedActions derives the ordered, deduplicated, capped list of
// recommended (action kind, target) pairs from a path's edges, per the
// fixed mapping in §4.3. id is the alert's own id, used as notify_operator's
// target.
func recommendedActions(p Path, target graph.Node, store *graph.Store, id string) []Recommendation {
	var out []Recommendation
	seen := map[string]bool{}
	add := func(k ActionKind, t string) {
		key := string(k) + "|" + t
		if seen[key] {
			return
		}
		if len(out) >= MaxRecommendations {
			return
		}
		seen[key] = true
		out = append(out, Recommendation{Kind: k, Target: t})
	}

	for i, e := range p.Edges {
		srcNode, ok := store.GetNode(p.NodeIDs[i])
		switch {
		case e.Kind == graph.EdgeCanAssume && ok && srcNode.Kind == graph.NodeUser:
			add(ActionDisableLoginProfile, srcNode.ID)
		case e.Kind == graph.EdgeHasPolicy:
			if policyID, entityID, entityKind, resolved := resolveHasPolicy(e, store); resolved {
				actionTarget := entityID + "|" + policyID
				if entityKind == graph.NodeRole {
					add(ActionDetachRolePolicy, actionTarget)
				} else {
					add(ActionDetachUserPolicy, actionTarget)
				}
			}
		case e.Kind == graph.EdgeAllowsAction && (e.Action() == "iam:CreatePolicyVersion" || e.Action() == "iam:SetDefaultPolicyVersion"):
			add(ActionRevertPolicyVersion, e.Target)
		}
	}
	if target.Kind == graph.NodeRole && target.PrivilegeLevel >= DefaultHighPrivilegeThreshold {
		add(ActionQuarantineRole, target.ID)
	}
	// notify_operator is always the last entry; when the list is already
	// full it replaces the final recommendation.
	if len(out) >= MaxRecommendations {
		out[MaxRecommendations-1] = Recommendation{Kind: ActionNotifyOperator, Target: id}
	} else {
		out = append(out, Recommendation{Kind: ActionNotifyOperator, Target: id})
	}
	return out
}
