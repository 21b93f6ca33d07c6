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

package resilience_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelguard/sentinelguard/internal/resilience"
)

type markedTransient struct{ error }

func (markedTransient) Transient() bool { return true }

func retryableOnly(err error) bool {
	var t interface{ Transient() bool }
	return errors.As(err, &t) && t.Transient()
}

func TestDoSucceedsOnFirstAttemptWithoutRetrying(t *testing.T) {
	b := resilience.NewBreaker("test-succeeds")
	calls := 0

	result, attempts, err := b.Do(context.Background(), retryableOnly, func(ctx context.Context) (any, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}

func TestDoRetriesTransientErrorsUpToMaxAttempts(t *testing.T) {
	b := resilience.NewBreaker("test-retries")
	calls := 0

	_, attempts, err := b.Do(context.Background(), retryableOnly, func(ctx context.Context) (any, error) {
		calls++
		return nil, markedTransient{errors.New("transient failure")}
	})

	require.Error(t, err)
	assert.Equal(t, resilience.MaxAttempts, calls)
	assert.Equal(t, resilience.MaxAttempts, attempts)
}

func TestDoUsesAllThreeBackoffDelaysBeforeFailing(t *testing.T) {
	require.Len(t, resilience.Backoff, 3)
	assert.Equal(t, resilience.MaxAttempts, len(resilience.Backoff)+1,
		"one initial attempt plus a retry after each documented backoff delay")
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	b := resilience.NewBreaker("test-permanent")
	calls := 0

	_, attempts, err := b.Do(context.Background(), retryableOnly, func(ctx context.Context) (any, error) {
		calls++
		return nil, errors.New("permanent failure")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}

func TestDoAbortsImmediatelyOnContextCancellation(t *testing.T) {
	b := resilience.NewBreaker("test-cancel")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	_, _, err := b.Do(ctx, retryableOnly, func(ctx context.Context) (any, error) {
		calls++
		return nil, markedTransient{errors.New("transient failure")}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "the first attempt still runs; cancellation is only checked before a retry's backoff sleep")
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := resilience.NewBreaker("test-trip")

	for i := 0; i < 5; i++ {
		_, _, _ = b.Do(context.Background(), func(error) bool { return false }, func(ctx context.Context) (any, error) {
			return nil, errors.New("failure")
		})
	}

	assert.Equal(t, "open", b.State().String())
}
