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

// Package graph implements the identity graph: an in-memory directed
// multigraph of principals, groups, roles, policies, resources, and
// services, plus the bounded queries the detection engine runs over it.
package graph

import "fmt"

// NodeKind enumerates the kinds of identity graph nodes.
type NodeKind string

const (
	NodeUser     NodeKind = "user"
	NodeGroup    NodeKind = "group"
	NodeRole     NodeKind = "role"
	NodePolicy   NodeKind = "policy"
	NodeResource NodeKind = "resource"
	NodeService  NodeKind = "service"
)

// EdgeKind enumerates the kinds of identity graph edges and their semantics.
type EdgeKind string

const (
	EdgeMemberOf     EdgeKind = "member_of"
	EdgeHasPolicy    EdgeKind = "has_policy"
	EdgeCanAssume    EdgeKind = "can_assume"
	EdgeAllowsAction EdgeKind = "allows_action"
	EdgeTrusts       EdgeKind = "trusts"
	EdgeOwns         EdgeKind = "owns"
)

const (
	// PrivilegeMin is the lowest legal privilege level (no effective permissions).
	PrivilegeMin = 0
	// PrivilegeMax is the highest legal privilege level (cloud-admin-equivalent).
	PrivilegeMax = 100
)

// PrivilegedActions is the fixed set of privilege-relevant action verbs on
// allows_action edges. The detection engine does not consult this map; its
// confidence weights list their own verbs. This is the entire
// "policy language" the system understands: a closed list of verbs, not a
// general evaluator for arbitrary policy documents.
var PrivilegedActions = map[string]bool{
	"iam:PassRole":               true,
	"iam:CreatePolicyVersion":    true,
	"iam:SetDefaultPolicyVersion": true,
	"sts:AssumeRole":             true,
	"ec2:RunInstances":           true,
}

// Node is a principal, group, role, policy, resource, or service.
type Node struct {
	ID             string
	Kind           NodeKind
	DisplayName    string
	PrivilegeLevel int
	Attributes     map[string]string
}

// Edge connects two nodes with typed semantics and optional attributes.
type Edge struct {
	Source     string
	Target     string
	Kind       EdgeKind
	Attributes map[string]string
}

// Action returns the iam/sts/ec2 action verb stored on an allows_action
// edge's attribute bag, or "" if absent or not an allows_action edge.
func (e Edge) Action() string {
	if e.Kind != EdgeAllowsAction || e.Attributes == nil {
		return ""
	}
	return e.Attributes["action"]
}

func validatePrivilege(level int) error {
	if level < PrivilegeMin || level > PrivilegeMax {
		return fmt.Errorf("privilege_level %d out of range [%d,%d]", level, PrivilegeMin, PrivilegeMax)
	}
	return nil
}

// Direction selects which edges neighbors/reachable should traverse.
type Direction int

const (
	Out Direction = iota
	In
	Both
)

// Neighbor pairs an edge with the node reached by traversing it.
type Neighbor struct {
	Edge  Edge
	Node  Node
}
