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

// Package resilience wraps the retry/backoff and circuit-breaking policy
// shared by every call the response executor makes against an effector.
package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// Backoff is the fixed retry schedule: 3 retries, with delays of 100ms,
// 400ms, and 1600ms between consecutive attempts.
var Backoff = []time.Duration{100 * time.Millisecond, 400 * time.Millisecond, 1600 * time.Millisecond}

// MaxAttempts is one initial attempt plus all three of Backoff's retries.
const MaxAttempts = 4

// Retryable is satisfied by errors that should be retried rather than
// failed immediately; callers typically pass effector.IsTransient.
type Retryable func(error) bool

// Breaker wraps gobreaker.CircuitBreaker with the policy used uniformly
// across every action kind: trip after 5 consecutive failures, half-open
// after 30s, and require 2 consecutive successes to fully close.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker constructs a Breaker named for the component it guards.
func NewBreaker(name string) *Breaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Do runs fn through the retry schedule and circuit breaker together: each
// attempt passes through the breaker, and only errors retryable reports as
// retryable are retried. ctx cancellation aborts immediately. It returns the
// number of attempts made (1 if fn succeeded or failed permanently on the
// first try) alongside fn's result and error, so callers can report how many
// retries a completed or failed action absorbed.
func (b *Breaker) Do(ctx context.Context, retryable Retryable, fn func(context.Context) (any, error)) (any, int, error) {
	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, attempt, ctx.Err()
			case <-time.After(Backoff[attempt-1]):
			}
		}

		result, err := b.cb.Execute(func() (interface{}, error) {
			return fn(ctx)
		})
		if err == nil {
			return result, attempt + 1, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, attempt + 1, err
		}
	}
	return nil, MaxAttempts, lastErr
}

// State reports the breaker's current state, for health/metrics endpoints.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
