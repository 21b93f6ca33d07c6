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

package effector

import (
	"context"
	"fmt"
	"sync"
)

// MockEffector simulates cloud-mutating calls in memory. It is used when
// USE_MOCK_DATA=true and in tests; it never talks to a real cloud API.
type MockEffector struct {
	mu sync.Mutex
	// FailuresBeforeSuccess, keyed by (kind, target), lets tests exercise
	// the executor's transient-retry path deterministically.
	FailuresBeforeSuccess map[string]int
	applied               map[string]map[string]any
}

// NewMockEffector creates a MockEffector with no scripted failures.
func NewMockEffector() *MockEffector {
	return &MockEffector{
		FailuresBeforeSuccess: make(map[string]int),
		applied:               make(map[string]map[string]any),
	}
}

func key(kind, target string) string { return kind + "|" + target }

// Apply records the call and always succeeds unless FailuresBeforeSuccess
// has a remaining count for (kind, target), in which case it returns a
// transient error and decrements the count.
func (m *MockEffector) Apply(ctx context.Context, kind, target string, descriptor map[string]any) (bool, string, RollbackDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(kind, target)
	if n := m.FailuresBeforeSuccess[k]; n > 0 {
		m.FailuresBeforeSuccess[k] = n - 1
		return false, "", nil, MarkTransient(fmt.Errorf("mock transient failure for %s", k))
	}

	m.applied[k] = descriptor
	rollback := RollbackDescriptor{"kind": kind, "target": target, "prior": descriptor}
	return true, fmt.Sprintf("%s applied to %s", kind, target), rollback, nil
}

// Reverse undoes a previously applied mock action.
func (m *MockEffector) Reverse(ctx context.Context, kind, target string, rollback RollbackDescriptor) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.applied, key(kind, target))
	return true, fmt.Sprintf("%s reversed on %s", kind, target), nil
}
