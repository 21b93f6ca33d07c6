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

// Package metrics exposes the process's Prometheus counters: scans
// run, alerts emitted by severity, and response plan outcomes. It is a thin
// wrapper so the rest of the system never imports the prometheus client
// directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry groups every counter this system reports.
type Registry struct {
	ScansTotal        prometheus.Counter
	AlertsTotal        *prometheus.CounterVec
	PlanOutcomesTotal  *prometheus.CounterVec
	ActionOutcomesTotal *prometheus.CounterVec
}

// NewRegistry creates and registers every metric against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sentinelguard",
			Name:      "scans_total",
			Help:      "Total number of detection scans run.",
		}),
		AlertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinelguard",
			Name:      "alerts_total",
			Help:      "Total number of alerts emitted, by severity.",
		}, []string{"severity"}),
		PlanOutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinelguard",
			Name:      "plan_outcomes_total",
			Help:      "Total number of response plans, by terminal state.",
		}, []string{"state"}),
		ActionOutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinelguard",
			Name:      "action_outcomes_total",
			Help:      "Total number of response actions dispatched, by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveScan records one completed scan and the alerts it produced.
func (r *Registry) ObserveScan(severities []string) {
	r.ScansTotal.Inc()
	for _, sev := range severities {
		r.AlertsTotal.WithLabelValues(sev).Inc()
	}
}

// ObservePlanOutcome records a plan reaching a terminal state.
func (r *Registry) ObservePlanOutcome(state string) {
	r.PlanOutcomesTotal.WithLabelValues(state).Inc()
}

// ObserveActionOutcome records one action dispatch's outcome.
func (r *Registry) ObserveActionOutcome(outcome string) {
	r.ActionOutcomesTotal.WithLabelValues(outcome).Inc()
}
