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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sentinelguard/sentinelguard/internal/apperrors"
	"github.com/sentinelguard/sentinelguard/pkg/graph"
)

// Engine enumerates simple paths from low-privilege sources to
// high-privilege targets and emits risk-scored Alerts. It exclusively owns
// the Alert set: alerts are kept until an explicit purge, never deleted by
// a later scan that fails to re-find them.
type Engine struct {
	store *graph.Store

	mu            sync.RWMutex
	alerts        map[string]Alert
	handler       PlanHandler
	maxPathDepth  int
	lowThreshold  int
	highThreshold int
}

// NewEngine creates a Detection Engine bound to the given graph store.
func NewEngine(store *graph.Store) *Engine {
	return &Engine{
		store:         store,
		alerts:        make(map[string]Alert),
		maxPathDepth:  DefaultMaxPathDepth,
		lowThreshold:  DefaultLowPrivilegeThreshold,
		highThreshold: DefaultHighPrivilegeThreshold,
	}
}

// SetPlanHandler registers the callback invoked for every newly emitted,
// auto-response-eligible alert. It is the only coupling to the response
// planner; passing nil disables the callback (used by mock/dry-run mode).
func (e *Engine) SetPlanHandler(h PlanHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

// Alerts returns every retained alert, sorted by severity (critical first)
// then by alert ID, for deterministic, severity-sorted listing.
func (e *Engine) Alerts() []Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Alert, 0, len(e.alerts))
	for _, a := range e.alerts {
		out = append(out, a)
	}
	sortAlertsBySeverity(out)
	return out
}

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

func sortAlertsBySeverity(alerts []Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		if severityRank[alerts[i].Severity] != severityRank[alerts[j].Severity] {
			return severityRank[alerts[i].Severity] < severityRank[alerts[j].Severity]
		}
		// ID is a deterministic hash of the path, so ties break the same
		// way on every run regardless of wall-clock DetectedAt.
		return alerts[i].ID < alerts[j].ID
	})
}

// PurgeStale removes alerts whose path no longer validates against the
// current graph (§4.2: "callers purge via an explicit operation").
func (e *Engine) PurgeStale() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	removed := 0
	for id, a := range e.alerts {
		if !pathStillValid(e.store, a.Path) {
			delete(e.alerts, id)
			removed++
		}
	}
	return removed
}

// Restore seeds the engine from a previously persisted alert set, replacing
// whatever it currently holds. Used only at startup, before any Scan call.
func (e *Engine) Restore(alerts []Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = make(map[string]Alert, len(alerts))
	for _, a := range alerts {
		e.alerts[a.ID] = a
	}
}

func pathStillValid(store *graph.Store, p Path) bool {
	for i := 0; i+1 < len(p.NodeIDs); i++ {
		found := false
		for _, nb := range store.Neighbors(p.NodeIDs[i], graph.Out) {
			if nb.Node.ID == p.NodeIDs[i+1] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Scan runs the bounded DFS from every candidate source to every candidate
// target and returns the alerts newly emitted or refreshed by this scan
// (the engine also retains them internally). If the scan's wall-clock
// budget is exceeded, partial results are discarded and an error returned.
func (e *Engine) Scan(ctx context.Context, params Params) (Result, error) {
	budget := params.ScanBudget
	if budget <= 0 {
		budget = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	minDelta := DefaultMinPrivilegeDelta
	if params.MinDelta != nil {
		minDelta = *params.MinDelta
	}

	sources := e.candidateSources(params.StartNode)
	targets := e.candidateTargetSet()

	type walkResult struct {
		alerts []Alert
		err    error
	}
	done := make(chan walkResult, 1)

	go func() {
		var found []Alert
		for _, src := range sources {
			w := &walker{
				store:     e.store,
				maxDepth:  e.maxPathDepth,
				targets:   targets,
				minDelta:  minDelta,
				source:    src,
			}
			found = append(found, w.run()...)
		}
		done <- walkResult{alerts: found}
	}()

	select {
	case <-ctx.Done():
		return Result{}, apperrors.NewTimeoutError("detection scan").WithDetails("partial results discarded")
	case r := <-done:
		if r.err != nil {
			return Result{}, r.err
		}
		var fresh []Alert
		e.mu.Lock()
		for _, a := range r.alerts {
			if _, existed := e.alerts[a.ID]; !existed {
				fresh = append(fresh, a)
			}
			e.alerts[a.ID] = a
		}
		e.mu.Unlock()

		if h := e.getHandler(); h != nil {
			for _, a := range fresh {
				if a.AutoResponseEligible {
					h(a)
				}
			}
		}
		return Result{Alerts: r.alerts}, nil
	}
}

func (e *Engine) getHandler() PlanHandler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.handler
}

func (e *Engine) candidateSources(startNode string) []graph.Node {
	if startNode != "" {
		if n, ok := e.store.GetNode(startNode); ok {
			return []graph.Node{n}
		}
		return nil
	}
	var out []graph.Node
	for _, n := range e.store.AllNodes() {
		if n.PrivilegeLevel <= e.lowThreshold {
			out = append(out, n)
		}
	}
	return out
}

func (e *Engine) candidateTargetSet() map[string]bool {
	out := make(map[string]bool)
	for _, n := range e.store.AllNodes() {
		if n.PrivilegeLevel >= e.highThreshold {
			out[n.ID] = true
		}
	}
	return out
}

// walker performs the bounded DFS from a single source.
type walker struct {
	store    *graph.Store
	maxDepth int
	targets  map[string]bool
	minDelta int
	source   graph.Node

	onPath map[string]bool
	path   []string
	edges  []graph.Edge
	found  []Alert
}

func (w *walker) run() []Alert {
	w.onPath = map[string]bool{w.source.ID: true}
	w.path = []string{w.source.ID}
	w.walk(w.source, w.source.PrivilegeLevel)
	return w.found
}

// walk extends the current path from node cur. maxSeen is the highest
// privilege_level encountered so far anywhere on the current path,
// including the source.
func (w *walker) walk(cur graph.Node, maxSeen int) {
	if len(w.path) >= w.maxDepth+1 {
		return
	}
	for _, nb := range w.store.Neighbors(cur.ID, graph.Out) {
		next := nb.Node
		if w.onPath[next.ID] {
			continue // simple path: no repeated nodes
		}
		lateral := next.PrivilegeLevel < w.source.PrivilegeLevel &&
			next.PrivilegeLevel < maxSeen &&
			!escalationKinds[nb.Edge.Kind]
		if lateral {
			continue
		}

		w.onPath[next.ID] = true
		w.path = append(w.path, next.ID)
		w.edges = append(w.edges, nb.Edge)
		nextMax := maxSeen
		if next.PrivilegeLevel > nextMax {
			nextMax = next.PrivilegeLevel
		}

		if w.targets[next.ID] {
			w.emit(next)
		}
		w.walk(next, nextMax)

		w.edges = w.edges[:len(w.edges)-1]
		w.path = w.path[:len(w.path)-1]
		delete(w.onPath, next.ID)
	}
}

func (w *walker) emit(target graph.Node) {
	delta := target.PrivilegeLevel - w.source.PrivilegeLevel
	if delta < w.minDelta {
		return
	}

	path := Path{
		NodeIDs: append([]string(nil), w.path...),
		Edges:   append([]graph.Edge(nil), w.edges...),
	}

	confidence := pathConfidence(path.Edges)
	blastRadius := len(w.store.Reachable(target.ID, DefaultBlastRadiusDepth,
		graph.EdgeCanAssume, graph.EdgeAllowsAction, graph.EdgeOwns))
	if blastRadius > DefaultBlastRadiusCap {
		blastRadius = DefaultBlastRadiusCap
	}
	severity, _ := severityFor(confidence, delta, blastRadius)
	eligible := autoResponseEligible(confidence, blastRadius, severity)
	id := alertID(path)

	alert := Alert{
		ID:                   id,
		Path:                 path,
		SourceID:             w.source.ID,
		TargetID:             target.ID,
		PrivilegeDelta:       delta,
		Confidence:           confidence,
		BlastRadius:          blastRadius,
		Severity:             severity,
		DetectedAt:           time.Now().UTC(),
		RecommendedActions:   recommendedActions(path, target, w.store, id),
		AutoResponseEligible: eligible,
	}
	w.found = append(w.found, alert)
}

// alertID computes a stable hash over the ordered (node id, edge kind)
// tuples of the path, so re-running a scan over an unchanged graph
// reproduces the same identifier.
func alertID(p Path) string {
	h := sha256.New()
	for i, id := range p.NodeIDs {
		fmt.Fprintf(h, "%s|", id)
		if i < len(p.Edges) {
			fmt.Fprintf(h, "%s|", p.Edges[i].Kind)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
