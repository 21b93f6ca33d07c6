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

package ingest

import (
	"context"

	"github.com/sentinelguard/sentinelguard/pkg/graph"
)

// MockIngester returns a fixed, canned identity graph: a handful of
// users, roles, a policy, and a few resources connected by a small
// escalation path. Used by the POST /api/ingest/aws handler in place of a
// real AWS IAM crawl, whatever the USE_MOCK_DATA setting.
type MockIngester struct{}

// NewMockIngester returns a MockIngester.
func NewMockIngester() *MockIngester { return &MockIngester{} }

func (MockIngester) Ingest(ctx context.Context) ([]graph.Node, []graph.Edge, error) {
	nodes := []graph.Node{
		{ID: "user:intern_a", Kind: graph.NodeUser, DisplayName: "Intern A", PrivilegeLevel: 10},
		{ID: "user:data_lead", Kind: graph.NodeUser, DisplayName: "Data Lead", PrivilegeLevel: 50},
		{ID: "role:maintenance", Kind: graph.NodeRole, DisplayName: "Maintenance Role", PrivilegeLevel: 60},
		{ID: "role:prod_admin", Kind: graph.NodeRole, DisplayName: "Prod Admin Role", PrivilegeLevel: 100},
		{ID: "policy:ds_custom", Kind: graph.NodePolicy, DisplayName: "Data Science Custom Policy", PrivilegeLevel: 0},
		{ID: "role:analytics_admin", Kind: graph.NodeRole, DisplayName: "Analytics Admin Role", PrivilegeLevel: 95},
		{ID: "resource:ec2", Kind: graph.NodeResource, DisplayName: "EC2 Fleet", PrivilegeLevel: 0},
		{ID: "resource:s3", Kind: graph.NodeResource, DisplayName: "Production S3 Buckets", PrivilegeLevel: 0},
		{ID: "resource:data_lake", Kind: graph.NodeResource, DisplayName: "Data Lake", PrivilegeLevel: 0},
	}

	edges := []graph.Edge{
		{Source: "user:intern_a", Target: "role:maintenance", Kind: graph.EdgeCanAssume},
		{Source: "role:maintenance", Target: "role:prod_admin", Kind: graph.EdgeAllowsAction,
			Attributes: map[string]string{"action": "iam:PassRole"}},
		{Source: "role:prod_admin", Target: "resource:ec2", Kind: graph.EdgeCanAssume,
			Attributes: map[string]string{"Service": "ec2"}},
		{Source: "role:prod_admin", Target: "resource:s3", Kind: graph.EdgeOwns},
		{Source: "user:data_lead", Target: "policy:ds_custom", Kind: graph.EdgeAllowsAction,
			Attributes: map[string]string{"action": "iam:CreatePolicyVersion"}},
		{Source: "policy:ds_custom", Target: "role:analytics_admin", Kind: graph.EdgeHasPolicy},
		{Source: "role:analytics_admin", Target: "resource:data_lake", Kind: graph.EdgeOwns},
	}
	return nodes, edges, nil
}
