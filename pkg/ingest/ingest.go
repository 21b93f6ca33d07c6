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

// Package ingest defines the boundary the identity graph store is
// populated through. Talking to a real cloud IAM API is out of scope for
// this system; Ingester exists so the rest of the pipeline never depends
// on how a graph snapshot was produced.
package ingest

import (
	"context"

	"github.com/sentinelguard/sentinelguard/pkg/graph"
)

// Ingester produces a graph snapshot: a set of nodes and the edges
// connecting them.
type Ingester interface {
	Ingest(ctx context.Context) ([]graph.Node, []graph.Edge, error)
}

// Load calls ing.Ingest, builds the result into a fresh graph via UpsertNode
// and UpsertEdge (nodes first so every edge's endpoints already exist), and
// then replaces store's contents with it. On any error store is unchanged.
func Load(ctx context.Context, ing Ingester, store *graph.Store) error {
	nodes, edges, err := ing.Ingest(ctx)
	if err != nil {
		return err
	}
	staged := graph.NewStore()
	for _, n := range nodes {
		if err := staged.UpsertNode(n); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if err := staged.UpsertEdge(e.Source, e.Target, e.Kind, e.Attributes); err != nil {
			return err
		}
	}
	return store.Restore(staged.Snapshot())
}
